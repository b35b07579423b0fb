package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlotWindowsDefaults(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	windows, err := slotWindows(date, nil)
	require.NoError(t, err)
	require.Len(t, windows, 7)

	require.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), windows[0].start)
	require.Equal(t, time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC), windows[6].end)
	for _, w := range windows {
		require.Equal(t, 2*time.Hour, w.end.Sub(w.start))
	}
}

func TestSlotWindowsExplicit(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	windows, err := slotWindows(date, []string{"06:30-07:15", "21:00-23:45"})
	require.NoError(t, err)
	require.Len(t, windows, 2)

	require.Equal(t, time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC), windows[0].start)
	require.Equal(t, time.Date(2025, 3, 10, 7, 15, 0, 0, time.UTC), windows[0].end)
	require.Equal(t, time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC), windows[1].start)
	require.Equal(t, time.Date(2025, 3, 10, 23, 45, 0, 0, time.UTC), windows[1].end)
}

func TestSlotWindowsInvalidSpecs(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, spec := range []string{
		"10:00",        // no separator
		"10:00-09:00",  // end before start
		"10:00-10:00",  // zero length
		"25:00-26:00",  // hour out of range
		"aa:bb-cc:dd",  // not numeric
		"10:00-12:00-", // trailing garbage splits into three parts
	} {
		_, err := slotWindows(date, []string{spec})
		require.Error(t, err, "spec %q should be rejected", spec)
	}
}

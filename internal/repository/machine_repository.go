package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
)

// MachineRepo provides CRUD operations for laundry machines. Machines
// carry no concurrency-sensitive state beyond their status flag, so all
// methods operate directly on the pool without transactions except the
// Tx variants used by the reservation and schedule services.
type MachineRepo struct {
	db *sql.DB
}

// NewMachineRepo returns a new MachineRepo bound to the given database.
func NewMachineRepo(db *sql.DB) *MachineRepo { return &MachineRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *MachineRepo) DB() *sql.DB { return r.db }

const machineColumns = "id, name, status, created_at"

func scanMachine(row interface{ Scan(...any) error }) (model.Machine, error) {
	var m model.Machine
	err := row.Scan(&m.ID, &m.Name, &m.Status, &m.CreatedAt)
	return m, err
}

// List returns all machines ordered by name.
func (r *MachineRepo) List(ctx context.Context) ([]model.Machine, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+machineColumns+" FROM machines ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	machines := make([]model.Machine, 0)
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// GetByID returns a single machine or ErrMachineNotFound.
func (r *MachineRepo) GetByID(ctx context.Context, id uint64) (model.Machine, error) {
	m, err := scanMachine(r.db.QueryRowContext(ctx,
		"SELECT "+machineColumns+" FROM machines WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Machine{}, ErrMachineNotFound
	}
	return m, err
}

// Create inserts a machine with status 'available' and returns it with
// the generated id populated.
func (r *MachineRepo) Create(ctx context.Context, name string) (model.Machine, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO machines (name, status) VALUES (?, ?)", name, model.MachineAvailable)
	if err != nil {
		return model.Machine{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Machine{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// UpdateStatus sets the machine's status flag.
func (r *MachineRepo) UpdateStatus(ctx context.Context, id uint64, status model.MachineStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE machines SET status=? WHERE id=?", status, id)
	return err
}

// DeleteTx removes the machine row within a transaction. Timeslots and
// bookings referencing the machine are removed by cascading foreign
// keys; schedule links must be cleared first via
// ScheduleRepo.DeleteLinksByMachineTx.
func (r *MachineRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM machines WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMachineNotFound
	}
	return nil
}

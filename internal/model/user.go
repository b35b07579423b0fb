package model

import "time"

// Role enumerates the access levels of an account.
type Role string

const (
    // RoleUser is a resident who can book, cancel and reschedule
    // their own slots.
    RoleUser Role = "user"
    // RoleAdmin can additionally manage machines, schedules, users
    // and any booking.
    RoleAdmin Role = "admin"
)

// User represents an application user record as stored in the
// `users` table. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Email        – contact email.
//  FullName     – resident's full name for the admin panel.
//  Room         – dormitory room number.
//  Contract     – housing contract number.
//  Role         – access level (user, admin).
//  IsBlocked    – whether the account is barred from booking and login.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    PasswordHash string    // users.password_hash
    Email        string    // users.email
    FullName     string    // users.full_name
    Room         string    // users.room
    Contract     string    // users.contract
    Role         Role      // users.role
    IsBlocked    bool      // users.is_blocked
    CreatedAt    time.Time // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

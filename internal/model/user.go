package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are primarily used
// internally by the repository layer; handlers define separate response
// types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FullName     – display name supplied at registration.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table.
//  RoleName     – role name joined from roles ("admin" or "user").
//  PartnerID    – referring partner, when the user registered with a
//                 partner code (nullable).
//  IsVerified   – whether the email address has passed OTP verification.
//  AvatarURL    – optional profile image URL.
//  SerialNumber – human-facing account number assigned at signup.
//  CreatedAt    – timestamp of creation.
//  LastLoginAt  – timestamp of the last successful login (nullable).
type User struct {
	ID           uint64     // users.user_id
	FullName     string     // users.full_name
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	RoleID       uint8      // users.role_id (references roles.role_id)
	RoleName     string     // roles.role_name (joined)
	PartnerID    *uint64    // users.partner_id (nullable)
	IsVerified   bool       // users.is_verified
	AvatarURL    *string    // users.avatar_url (nullable)
	SerialNumber *string    // users.serial_number (nullable)
	CreatedAt    time.Time  // users.created_at
	LastLoginAt  *time.Time // users.last_login_at (nullable)
}

// Role represents a row in the `roles` table.  It maps a small integer
// ID to a role name.  Users reference this table via the RoleID field.
type Role struct {
	ID   uint8  // roles.role_id
	Name string // roles.role_name ("admin" or "user")
}

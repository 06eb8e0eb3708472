// Package models holds the GORM models for the gate's local shadow database.
package models

import "time"

// User is a local shadow of a directory user. Auto-login mirrors the resolved
// directory record here so the host application can reference stable local
// IDs; the directory stays the source of truth.
type User struct {
	// ID is the unique local identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active mirrors the directory's active flag at last sync.
	Active bool
	// Username is the directory username.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address at last sync.
	Email string `gorm:"size:255"`
	// DisplayName is the user's display name at last sync.
	DisplayName string `gorm:"size:255"`
	// LastLoginAt is when the gate last materialized a principal for the user.
	LastLoginAt time.Time
	// CreatedAt is the timestamp when the shadow record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the shadow record was last updated (managed by GORM).
	UpdatedAt time.Time
}

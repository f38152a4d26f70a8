// Package models contains shared data models used across the DataForge codebase.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credential represents one stored AI provider API key. The raw key value is
// never serialized; list and read responses expose MaskedKey instead.
type Credential struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	OwnerID   uuid.UUID `db:"owner_id"   json:"owner_id"`
	KeyName   string    `db:"key_name"   json:"key_name"`
	KeyValue  string    `db:"key_value"  json:"-"`
	IsActive  bool      `db:"is_active"  json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MaskedKey returns a display form of the key value: the first three and the
// last four characters with the middle replaced. Short keys are fully masked.
func (c *Credential) MaskedKey() string {
	v := strings.TrimSpace(c.KeyValue)
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:3] + "****" + v[len(v)-4:]
}

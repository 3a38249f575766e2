package model

import (
	"time"
)

type (
	// A Record is an account-side entry (user, session) the local database
	// client can persist. Items carry their own stamp contract and do not
	// implement it.
	Record interface {
		// GetID returns the record's ID.
		GetID() string
		// SetID defines the record's ID.
		SetID(string)
		// SetCreatedAt defines the record's creation date.
		SetCreatedAt(time.Time)
		// SetUpdatedAt defines the record's last update date.
		SetUpdatedAt(time.Time)
	}

	// A Base contains the fields shared by every Record.
	Base struct {
		ID        string     `json:"uuid"       msgpack:"id"         storm:"id"`
		CreatedAt *time.Time `json:"created_at" msgpack:"created_at" storm:"index"`
		UpdatedAt *time.Time `json:"updated_at" msgpack:"updated_at" storm:"index"`
	}
)

// GetID returns the record's ID.
func (m *Base) GetID() string {
	return m.ID
}

// SetID defines the record's ID.
func (m *Base) SetID(id string) {
	m.ID = id
}

// SetCreatedAt defines the record's creation date.
func (m *Base) SetCreatedAt(t time.Time) {
	m.CreatedAt = &t
}

// SetUpdatedAt defines the record's last update date.
func (m *Base) SetUpdatedAt(t time.Time) {
	m.UpdatedAt = &t
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a CRM client record. Core identity fields used for duplicate
// detection are promoted to dedicated columns; everything else lives in
// the attributes payload.
type Client struct {
	ID              uuid.UUID         `json:"id"`
	TeamID          uuid.UUID         `json:"team_id"`
	ImportSessionID *uuid.UUID        `json:"import_session_id,omitempty"`
	Attributes      map[string]string `json:"attributes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewClient creates a client owned by a team.
func NewClient(teamID uuid.UUID, attributes map[string]string) Client {
	now := time.Now()
	return Client{
		ID:         uuid.New(),
		TeamID:     teamID,
		Attributes: copyAttributes(attributes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Get returns a trimmed attribute value, empty when absent.
func (c Client) Get(field string) string {
	if c.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(c.Attributes[field])
}

// Has reports whether the field carries a non-empty value.
func (c Client) Has(field string) bool {
	return c.Get(field) != ""
}

// Nom returns the family name.
func (c Client) Nom() string { return c.Get("nom") }

// Prenom returns the given name.
func (c Client) Prenom() string { return c.Get("prenom") }

// Email returns the email address.
func (c Client) Email() string { return c.Get("email") }

// Telephone returns the phone number.
func (c Client) Telephone() string { return c.Get("telephone") }

// DateNaissance returns the birth date (ISO format when normalized).
func (c Client) DateNaissance() string { return c.Get("date_naissance") }

// WithAttribute returns a copy of the client with one attribute set.
func (c Client) WithAttribute(field, value string) Client {
	attrs := copyAttributes(c.Attributes)
	attrs[field] = value
	c.Attributes = attrs
	c.UpdatedAt = time.Now()
	return c
}

func copyAttributes(attributes map[string]string) map[string]string {
	copied := make(map[string]string, len(attributes))
	for key, value := range attributes {
		copied[key] = value
	}
	return copied
}

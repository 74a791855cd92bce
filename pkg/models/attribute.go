package models

import (
	"time"

	"github.com/google/uuid"
)

// Attribute is a business-glossary attribute. Name is the unique key;
// UsageCount is derived from tag/column references and never written directly.
type Attribute struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	UsageCount  int       `json:"usage_count"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   *string   `json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enumeration is one allowed value of an Attribute.
type Enumeration struct {
	ID               uuid.UUID `json:"id"`
	AttributeID      uuid.UUID `json:"attribute_id"`
	ValueCode        string    `json:"value_code"`
	ValueDescription string    `json:"value_description,omitempty"`
	SortOrder        int       `json:"sort_order"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AttributeWithEnumerations is the read-side aggregate returned by the
// glossary browse endpoints.
type AttributeWithEnumerations struct {
	Attribute
	Enumerations []*Enumeration `json:"enumerations"`
}

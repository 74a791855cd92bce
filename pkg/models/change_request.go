package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Request type constants. The set is closed: creation rejects anything else,
// and the approval apply switch matches every member.
const (
	RequestTypeDescription       = "DESCRIPTION"
	RequestTypeColumnDescription = "COLUMN_DESCRIPTION"
	RequestTypeTagAdd            = "TAG_ADD"
	RequestTypeTagRemove         = "TAG_REMOVE"
	RequestTypeAttributeCreate   = "ATTRIBUTE_CREATE"
	RequestTypeAttributeEdit     = "ATTRIBUTE_EDIT"
	RequestTypeEnumerationAdd    = "ENUMERATION_ADD"
	RequestTypeEnumerationEdit   = "ENUMERATION_EDIT"
)

// Request status constants.
const (
	StatusPending        = "pending"
	StatusMoreInfoNeeded = "more_info_needed"
	StatusApproved       = "approved"
	StatusDenied         = "denied"
)

// ChangeRequest represents a proposed edit to curated catalog content,
// awaiting a reviewer decision.
type ChangeRequest struct {
	ID              uuid.UUID       `json:"id"`
	RequestType     string          `json:"request_type"`
	TargetObject    string          `json:"target_object"`
	Requester       string          `json:"requester"`
	Justification   string          `json:"justification"`
	ProposedChange  json.RawMessage `json:"proposed_change"`
	CurrentValue    json.RawMessage `json:"current_value,omitempty"`
	Status          string          `json:"status"`
	AssignedTo      *string         `json:"assigned_to,omitempty"`
	DecisionComment *string         `json:"decision_comment,omitempty"`
	RequestedAt     time.Time       `json:"requested_at"`
	DecisionDate    *time.Time      `json:"decision_date,omitempty"`
}

// IsTerminal reports whether the request has reached a terminal status.
func (r *ChangeRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusDenied
}

// ValidRequestType reports whether t is a member of the closed request-type set.
func ValidRequestType(t string) bool {
	switch t {
	case RequestTypeDescription, RequestTypeColumnDescription,
		RequestTypeTagAdd, RequestTypeTagRemove,
		RequestTypeAttributeCreate, RequestTypeAttributeEdit,
		RequestTypeEnumerationAdd, RequestTypeEnumerationEdit:
		return true
	}
	return false
}

// AttributeFamilyTypes are the request types surfaced by the
// all-attributes view (glossary attribute and enumeration curation).
var AttributeFamilyTypes = []string{
	RequestTypeAttributeCreate,
	RequestTypeAttributeEdit,
	RequestTypeEnumerationAdd,
	RequestTypeEnumerationEdit,
}

// Payload is the typed proposed-change value of a change request.
// Exactly one implementation exists per request type, so the apply switch in
// the state machine is exhaustive by construction.
type Payload interface {
	// Validate checks payload fields that must be present at submission.
	Validate() error
}

// DescriptionPayload carries a proposed table or column description
// (DESCRIPTION, COLUMN_DESCRIPTION).
type DescriptionPayload struct {
	Description string `json:"description"`
}

func (p *DescriptionPayload) Validate() error {
	if p.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

// TagPayload carries a tag association change (TAG_ADD, TAG_REMOVE).
type TagPayload struct {
	TagName string `json:"tag_name"`
}

func (p *TagPayload) Validate() error {
	if p.TagName == "" {
		return fmt.Errorf("tag_name is required")
	}
	return nil
}

// EnumerationInput is one enumeration value proposed under an attribute.
type EnumerationInput struct {
	ValueCode        string `json:"value_code"`
	ValueDescription string `json:"value_description"`
	SortOrder        int    `json:"sort_order"`
}

// AttributeCreatePayload proposes a new glossary attribute with its
// enumerations (ATTRIBUTE_CREATE).
type AttributeCreatePayload struct {
	AttributeName string             `json:"attribute_name"`
	DisplayName   string             `json:"display_name,omitempty"`
	Description   string             `json:"description,omitempty"`
	Enumerations  []EnumerationInput `json:"enumerations,omitempty"`
}

func (p *AttributeCreatePayload) Validate() error {
	if p.AttributeName == "" {
		return fmt.Errorf("attribute_name is required")
	}
	for i, e := range p.Enumerations {
		if e.ValueCode == "" {
			return fmt.Errorf("enumerations[%d].value_code is required", i)
		}
	}
	return nil
}

// AttributeEditPayload proposes display-name/description changes to an
// existing attribute (ATTRIBUTE_EDIT).
type AttributeEditPayload struct {
	AttributeName string `json:"attribute_name"`
	DisplayName   string `json:"display_name,omitempty"`
	Description   string `json:"description,omitempty"`
}

func (p *AttributeEditPayload) Validate() error {
	if p.AttributeName == "" {
		return fmt.Errorf("attribute_name is required")
	}
	if p.DisplayName == "" && p.Description == "" {
		return fmt.Errorf("at least one of display_name or description is required")
	}
	return nil
}

// EnumerationAddPayload proposes a new enumeration value under an existing
// attribute (ENUMERATION_ADD). Sort order is assigned at apply time.
type EnumerationAddPayload struct {
	AttributeName    string `json:"attribute_name"`
	ValueCode        string `json:"value_code"`
	ValueDescription string `json:"value_description,omitempty"`
}

func (p *EnumerationAddPayload) Validate() error {
	if p.AttributeName == "" {
		return fmt.Errorf("attribute_name is required")
	}
	if p.ValueCode == "" {
		return fmt.Errorf("value_code is required")
	}
	return nil
}

// EnumerationEditPayload proposes field changes to an existing enumeration
// value, addressed by id (ENUMERATION_EDIT).
type EnumerationEditPayload struct {
	EnumerationID    uuid.UUID `json:"enumeration_id"`
	ValueCode        string    `json:"value_code,omitempty"`
	ValueDescription string    `json:"value_description,omitempty"`
	SortOrder        *int      `json:"sort_order,omitempty"`
	IsActive         *bool     `json:"is_active,omitempty"`
}

func (p *EnumerationEditPayload) Validate() error {
	if p.EnumerationID == uuid.Nil {
		return fmt.Errorf("enumeration_id is required")
	}
	if p.ValueCode == "" && p.ValueDescription == "" && p.SortOrder == nil && p.IsActive == nil {
		return fmt.Errorf("at least one field to change is required")
	}
	return nil
}

// ParsePayload decodes and validates the raw proposed-change document for the
// given request type. An unknown request type is an error here so it can never
// reach the apply switch.
func ParsePayload(requestType string, raw json.RawMessage) (Payload, error) {
	var payload Payload
	switch requestType {
	case RequestTypeDescription, RequestTypeColumnDescription:
		payload = &DescriptionPayload{}
	case RequestTypeTagAdd, RequestTypeTagRemove:
		payload = &TagPayload{}
	case RequestTypeAttributeCreate:
		payload = &AttributeCreatePayload{}
	case RequestTypeAttributeEdit:
		payload = &AttributeEditPayload{}
	case RequestTypeEnumerationAdd:
		payload = &EnumerationAddPayload{}
	case RequestTypeEnumerationEdit:
		payload = &EnumerationEditPayload{}
	default:
		return nil, fmt.Errorf("unknown request type %q", requestType)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("proposed_change is required")
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("invalid proposed_change: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

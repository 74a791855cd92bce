package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestValidRequestType(t *testing.T) {
	for _, rt := range []string{
		RequestTypeDescription, RequestTypeColumnDescription,
		RequestTypeTagAdd, RequestTypeTagRemove,
		RequestTypeAttributeCreate, RequestTypeAttributeEdit,
		RequestTypeEnumerationAdd, RequestTypeEnumerationEdit,
	} {
		if !ValidRequestType(rt) {
			t.Errorf("ValidRequestType(%q) = false, want true", rt)
		}
	}

	for _, rt := range []string{"", "description", "RENAME_TABLE"} {
		if ValidRequestType(rt) {
			t.Errorf("ValidRequestType(%q) = true, want false", rt)
		}
	}
}

func TestParsePayload(t *testing.T) {
	enumID := uuid.New()

	tests := []struct {
		name        string
		requestType string
		raw         string
		wantErr     bool
	}{
		{
			name:        "description ok",
			requestType: RequestTypeDescription,
			raw:         `{"description":"Orders placed by customers"}`,
		},
		{
			name:        "description empty",
			requestType: RequestTypeDescription,
			raw:         `{"description":""}`,
			wantErr:     true,
		},
		{
			name:        "column description shares description payload",
			requestType: RequestTypeColumnDescription,
			raw:         `{"description":"Customer surrogate key"}`,
		},
		{
			name:        "tag add ok",
			requestType: RequestTypeTagAdd,
			raw:         `{"tag_name":"pii"}`,
		},
		{
			name:        "tag remove missing name",
			requestType: RequestTypeTagRemove,
			raw:         `{}`,
			wantErr:     true,
		},
		{
			name:        "attribute create with enumerations",
			requestType: RequestTypeAttributeCreate,
			raw:         `{"attribute_name":"filing_type","display_name":"Filing Type","enumerations":[{"value_code":"10-K","sort_order":1},{"value_code":"10-Q","sort_order":2}]}`,
		},
		{
			name:        "attribute create enumeration missing code",
			requestType: RequestTypeAttributeCreate,
			raw:         `{"attribute_name":"filing_type","enumerations":[{"value_description":"annual"}]}`,
			wantErr:     true,
		},
		{
			name:        "attribute edit needs a change",
			requestType: RequestTypeAttributeEdit,
			raw:         `{"attribute_name":"filing_type"}`,
			wantErr:     true,
		},
		{
			name:        "enumeration add ok",
			requestType: RequestTypeEnumerationAdd,
			raw:         `{"attribute_name":"filing_type","value_code":"8-K"}`,
		},
		{
			name:        "enumeration edit ok",
			requestType: RequestTypeEnumerationEdit,
			raw:         `{"enumeration_id":"` + enumID.String() + `","value_description":"Current report"}`,
		},
		{
			name:        "enumeration edit without id",
			requestType: RequestTypeEnumerationEdit,
			raw:         `{"value_description":"Current report"}`,
			wantErr:     true,
		},
		{
			name:        "unknown type",
			requestType: "RENAME_TABLE",
			raw:         `{}`,
			wantErr:     true,
		},
		{
			name:        "missing payload",
			requestType: RequestTypeDescription,
			raw:         "",
			wantErr:     true,
		},
		{
			name:        "malformed json",
			requestType: RequestTypeDescription,
			raw:         `{"description":`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParsePayload(tt.requestType, json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePayload(%q) expected error, got %#v", tt.requestType, payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload(%q) unexpected error: %v", tt.requestType, err)
			}
			if payload == nil {
				t.Fatalf("ParsePayload(%q) returned nil payload", tt.requestType)
			}
		})
	}
}

func TestParsePayloadReturnsTypedUnion(t *testing.T) {
	payload, err := ParsePayload(RequestTypeAttributeCreate,
		json.RawMessage(`{"attribute_name":"filing_type","enumerations":[{"value_code":"10-K","sort_order":1}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	create, ok := payload.(*AttributeCreatePayload)
	if !ok {
		t.Fatalf("payload type = %T, want *AttributeCreatePayload", payload)
	}
	if create.AttributeName != "filing_type" || len(create.Enumerations) != 1 {
		t.Errorf("unexpected payload contents: %+v", create)
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPending, false},
		{StatusMoreInfoNeeded, false},
		{StatusApproved, true},
		{StatusDenied, true},
	}
	for _, tt := range tests {
		r := &ChangeRequest{Status: tt.status}
		if got := r.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantErr    bool
	}{
		{"simple name", "customers", false},
		{"underscore prefix", "_staging", false},
		{"mixed case with digits", "Order2024", false},
		{"dollar suffix", "tmp$1", false},
		{"empty", "", true},
		{"embedded space", "order items", true},
		{"quote", "x'y", true},
		{"semicolon", "t;drop", true},
		{"leading digit", "1table", true},
		{"comment marker", "t--", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ScreenIdentifier(tt.identifier)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScreenIdentifierLength(t *testing.T) {
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ScreenIdentifier(string(long)))
	assert.NoError(t, ScreenIdentifier(string(long[:128])))
}

func TestSplitFullName(t *testing.T) {
	parts, err := SplitFullName("EDW.sales.orders")
	require.NoError(t, err)
	assert.Equal(t, "EDW", parts.Database)
	assert.Equal(t, "sales", parts.Schema)
	assert.Equal(t, "orders", parts.Table)
}

func TestSplitFullNameRejectsMalformed(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
	}{
		{"two parts", "sales.orders"},
		{"four parts", "EDW.sales.orders.extra"},
		{"empty part", "EDW..orders"},
		{"injection in part", "EDW.sales.orders'; DROP TABLE x--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitFullName(tt.fullName)
			assert.Error(t, err)
		})
	}
}

func TestJoinFullName(t *testing.T) {
	assert.Equal(t, "EDW.sales.orders", JoinFullName("EDW", "sales", "orders"))
}

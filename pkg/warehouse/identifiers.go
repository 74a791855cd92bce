package warehouse

import (
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

// FullNameParts is a three-part object name split into its components.
type FullNameParts struct {
	Database string
	Schema   string
	Table    string
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// SplitFullName parses a DB.SCHEMA.TABLE name into parts, rejecting names
// that are malformed or fail identifier screening.
func SplitFullName(fullName string) (*FullNameParts, error) {
	parts := strings.Split(fullName, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid table name %q: expected DB.SCHEMA.TABLE", fullName)
	}
	for _, p := range parts {
		if err := ScreenIdentifier(p); err != nil {
			return nil, fmt.Errorf("invalid table name %q: %w", fullName, err)
		}
	}
	return &FullNameParts{Database: parts[0], Schema: parts[1], Table: parts[2]}, nil
}

// JoinFullName builds the canonical DB.SCHEMA.TABLE name.
func JoinFullName(database, schema, table string) string {
	return database + "." + schema + "." + table
}

// ScreenIdentifier rejects strings that are not plain SQL identifiers or
// that libinjection flags as an injection pattern. Identifiers coming from
// user-submitted requests pass through here before touching the warehouse.
func ScreenIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("empty identifier")
	}
	if len(identifier) > 128 {
		return fmt.Errorf("identifier exceeds 128 characters")
	}
	if !identifierPattern.MatchString(identifier) {
		return fmt.Errorf("identifier %q contains invalid characters", identifier)
	}
	if isSQLi, fingerprint := libinjection.IsSQLi(identifier); isSQLi {
		return fmt.Errorf("identifier %q matches injection fingerprint %s", identifier, fingerprint)
	}
	return nil
}

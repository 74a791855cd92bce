package models

import (
	"time"

	"github.com/google/uuid"
)

// TableMetadata is one warehouse table in the scanned metadata snapshot.
// Rows are written only by the scan sync; everything user-facing hangs off
// FullName (DB.SCHEMA.TABLE).
type TableMetadata struct {
	FullName     string    `json:"full_name"`
	DatabaseName string    `json:"database_name"`
	SchemaName   string    `json:"schema_name"`
	TableName    string    `json:"table_name"`
	RowCount     *int64    `json:"row_count,omitempty"`
	ScannedAt    time.Time `json:"scanned_at"`
}

// ColumnMetadata is one column of a scanned table.
type ColumnMetadata struct {
	TableFullName string    `json:"table_full_name"`
	ColumnName    string    `json:"column_name"`
	DataType      string    `json:"data_type"`
	OrdinalPos    int       `json:"ordinal_position"`
	IsNullable    bool      `json:"is_nullable"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// Description is a user-authored description of a table (ColumnName nil) or
// a column (ColumnName set). Written only by the approval transition.
type Description struct {
	ID          uuid.UUID `json:"id"`
	ObjectName  string    `json:"object_name"`
	ColumnName  *string   `json:"column_name,omitempty"`
	Description string    `json:"description"`
	UpdatedBy   string    `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableTag associates a tag name with a table. Written only by the approval
// transition.
type TableTag struct {
	ID            uuid.UUID `json:"id"`
	TableFullName string    `json:"table_full_name"`
	TagName       string    `json:"tag_name"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Rating is an unmoderated 1-5 score a user gives a table. Append-only.
type Rating struct {
	ID            uuid.UUID `json:"id"`
	TableFullName string    `json:"table_full_name"`
	Score         int       `json:"score"`
	RatedBy       string    `json:"rated_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Comment is an unmoderated free-text note a user attaches to a table.
// Append-only.
type Comment struct {
	ID            uuid.UUID `json:"id"`
	TableFullName string    `json:"table_full_name"`
	CommentText   string    `json:"comment_text"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableSummary is the list-view projection of a table: scanned metadata plus
// curated content rollups.
type TableSummary struct {
	TableMetadata
	Description   *string  `json:"description,omitempty"`
	Tags          []string `json:"tags"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	RatingCount   int      `json:"rating_count"`
}

// TableDetail is the detail-view projection: summary plus columns (with their
// descriptions), ratings and comments.
type TableDetail struct {
	TableSummary
	Columns  []*ColumnDetail `json:"columns"`
	Comments []*Comment      `json:"comments"`
}

// ColumnDetail pairs scanned column metadata with its curated description.
type ColumnDetail struct {
	ColumnMetadata
	Description *string `json:"description,omitempty"`
}

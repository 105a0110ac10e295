// Package core implements the export orchestration engine: input validation,
// SQL parameter building, size-gated export sessions, and result serialization.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// FieldKind represents the input widget/value shape of a form field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldSelect
	FieldDateRange
)

// SpanTier caps the allowed date span (in days) for requests that touch up to
// MaxStorefronts storefronts. Tiers are evaluated in order; a tier with
// MaxStorefronts == 0 matches any count and must come last.
type SpanTier struct {
	MaxStorefronts int
	MaxDays        int
}

// FieldDef declares a single input field: how it is rendered, validated,
// and mapped onto SQL parameters.
type FieldDef struct {
	Name     string // Field key in the input set: "workspace_id"
	Label    string // Display label: "Workspace ID"
	Kind     FieldKind
	Required bool

	// Text field rules.
	Numeric    bool // Every token must be digit-only
	MultiValue bool // Comma-separated list of values
	MaxValues  int  // Cap on list length; 0 means unlimited

	// Select field options. The sentinel option "None" means "apply no
	// filter" and is omitted from the parameter map entirely.
	Options []string
	Default string

	// SQL placeholder mapping. Scalar and list fields use Param; date ranges
	// bind two placeholders (start, end).
	Param  string
	Params [2]string

	// Date range caps keyed on the storefront count in the same input set.
	SpanTiers []SpanTier

	Help string
}

// DataSource describes one named report: which input fields it takes and how
// it is presented. Query templates live in the report catalog.
type DataSource struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

// InputSet is the raw user-entered values for one export attempt, keyed by
// field name. Date ranges arrive as the two keys "start_date" and "end_date".
type InputSet map[string]string

// ParamMap holds bound SQL parameter values keyed by placeholder name.
// Values are ints, []int (IN-clause expansion), or ISO date strings.
type ParamMap map[string]any

// QueryKind selects between the cheap row-count query and the full data query
// of a data source.
type QueryKind string

const (
	KindCount QueryKind = "count"
	KindData  QueryKind = "data"
)

// TabularResult is a materialized query result: column names in query order
// plus row values.
type TabularResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Database is the warehouse capability: execute positional-parameter SQL and
// return a tabular result. Implementations must classify failures by wrapping
// ErrDatabaseUnavailable (retryable) or ErrQueryFailed (not retryable).
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (*TabularResult, error)
}

// QueryResolver supplies the opaque SQL template for a (source, kind) pair.
// Implemented by the report catalog.
type QueryResolver interface {
	Query(sourceKey string, kind QueryKind) (string, error)
}

// QueryCache memoizes query results. Get returns (nil, nil) on a miss.
// Implementations must be safe for concurrent use; a lost write on a
// population race is acceptable.
type QueryCache interface {
	Get(ctx context.Context, key string) (*TabularResult, error)
	Set(ctx context.Context, key string, result *TabularResult, ttl time.Duration) error
}

// Row-gating thresholds. These are part of the engine's public contract and
// are invariant across all data sources.
const (
	// MaxExportRows is the hard ceiling: estimates above it block the export.
	MaxExportRows int64 = 50000

	// PreviewRowLimit is the LIMIT applied to the preview query.
	PreviewRowLimit = 500
)

// Package schema declares the expected shape of inventory datasets:
// which columns are required and what semantic type each typed column
// carries. Schemas are declared once as configuration and are immutable
// during a pipeline run.
package schema

// ColumnType is the expected semantic type of a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeNumeric
)

// String returns the lowercase name used in issue reports.
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// TypedColumn pairs a column name with its expected type.
// Names are in normalized form (no embedded newlines).
type TypedColumn struct {
	Name string
	Type ColumnType
}

// Schema describes required columns and expected column types for one
// kind of tabular dataset.
type Schema struct {
	Required []string
	Typed    []TypedColumn
}

// TypeOf returns the declared type for a column, if any.
func (s Schema) TypeOf(name string) (ColumnType, bool) {
	for _, tc := range s.Typed {
		if tc.Name == name {
			return tc.Type, true
		}
	}
	return TypeText, false
}

// Inventory is the vehicle listing schema. Raw exports wrap the J.D. Power
// headers across two lines; matching happens against the normalized names.
var Inventory = Schema{
	Required: []string{
		"Year", "Stock #", "VIN", "Make", "Model", "Price", "Unit Cost",
	},
	Typed: []TypedColumn{
		{Name: "Year", Type: TypeInteger},
		{Name: "Odometer", Type: TypeInteger},
		{Name: "Price", Type: TypeNumeric},
		{Name: "Unit Cost", Type: TypeNumeric},
		{Name: "JD Power Trade In", Type: TypeNumeric},
		{Name: "JD Power Retail Clean", Type: TypeNumeric},
	},
}

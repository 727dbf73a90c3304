// Package format evaluates declarative conditional-formatting rules
// against tabular data rows.
//
// The engine is pure and stateless: given a row and a rule list it
// computes a style overlay, or none. The same semantics are implemented
// by the exported artifact's embedded runtime; the parity suite in
// pkg/export holds the two together.
package format

// Target selects what a rule paints.
type Target string

const (
	TargetRow  Target = "row"
	TargetCell Target = "cell"
)

// Operator is a condition comparison operator.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpIsEmpty     Operator = "isEmpty"
	OpIsNotEmpty  Operator = "isNotEmpty"
)

// Logic chains a condition with the one that follows it.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition compares one row column against a value. Logic on condition
// i dictates how condition i combines with condition i+1; the last
// condition's Logic is ignored.
type Condition struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Logic    Logic    `json:"logic,omitempty"`
}

// Style is a visual overlay. Empty fields mean "do not override", which
// is distinct from overriding back to a default.
type Style struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	FontWeight      string `json:"fontWeight,omitempty"`
	FontStyle       string `json:"fontStyle,omitempty"`
	TextDecoration  string `json:"textDecoration,omitempty"`
}

// IsZero reports whether no field is set.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Merge overlays src onto s field by field. Empty src fields leave the
// corresponding field of s untouched.
func (s *Style) Merge(src Style) {
	if src.BackgroundColor != "" {
		s.BackgroundColor = src.BackgroundColor
	}
	if src.TextColor != "" {
		s.TextColor = src.TextColor
	}
	if src.FontWeight != "" {
		s.FontWeight = src.FontWeight
	}
	if src.FontStyle != "" {
		s.FontStyle = src.FontStyle
	}
	if src.TextDecoration != "" {
		s.TextDecoration = src.TextDecoration
	}
}

// CSS returns the style as CSS property name → value.
func (s Style) CSS() map[string]string {
	m := make(map[string]string, 5)
	if s.BackgroundColor != "" {
		m["background-color"] = s.BackgroundColor
	}
	if s.TextColor != "" {
		m["color"] = s.TextColor
	}
	if s.FontWeight != "" {
		m["font-weight"] = s.FontWeight
	}
	if s.FontStyle != "" {
		m["font-style"] = s.FontStyle
	}
	if s.TextDecoration != "" {
		m["text-decoration"] = s.TextDecoration
	}
	return m
}

// Rule maps a condition chain to a style for rows or single cells.
type Rule struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Target       Target      `json:"target"`
	TargetColumn string      `json:"targetColumn,omitempty"`
	Conditions   []Condition `json:"conditions"`
	Style        Style       `json:"style"`
	Enabled      bool        `json:"enabled"`
}

// Row is one record of tabular data.
type Row map[string]any

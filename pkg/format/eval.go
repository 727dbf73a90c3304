package format

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EvaluateCondition evaluates one condition against a row.
//
// Coercion rules, preserved for compatibility with saved rules:
//   - eq/neq use loose equality: values that both parse as numbers
//     compare numerically, so "5" eq 5 matches.
//   - gt/gte/lt/lte coerce both operands to numbers; a value that
//     cannot be coerced never matches.
//   - contains/notContains/startsWith/endsWith compare case-insensitive
//     string forms.
//   - isEmpty/isNotEmpty ignore Value and look only at whether the
//     row's column is nil, missing, or the empty string.
func EvaluateCondition(cond Condition, row Row) bool {
	cell := row[cond.Column]

	switch cond.Operator {
	case OpEq:
		return looseEqual(cell, cond.Value)
	case OpNeq:
		return !looseEqual(cell, cond.Value)

	case OpGt, OpGte, OpLt, OpLte:
		a, aok := toNumber(cell)
		b, bok := toNumber(cond.Value)
		if !aok || !bok {
			return false
		}
		switch cond.Operator {
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		case OpLt:
			return a < b
		default:
			return a <= b
		}

	case OpContains:
		return strings.Contains(foldString(cell), foldString(cond.Value))
	case OpNotContains:
		return !strings.Contains(foldString(cell), foldString(cond.Value))
	case OpStartsWith:
		return strings.HasPrefix(foldString(cell), foldString(cond.Value))
	case OpEndsWith:
		return strings.HasSuffix(foldString(cell), foldString(cond.Value))

	case OpIsEmpty:
		return isEmptyValue(cell)
	case OpIsNotEmpty:
		return !isEmptyValue(cell)
	}

	// Unknown operator never matches.
	return false
}

// EvaluateRule evaluates a rule's condition chain against a row.
//
// Multi-condition evaluation is a strict left-fold with no operator
// precedence: the running result combines with condition i+1 using the
// Logic attached to condition i, so A OR B AND C evaluates as
// (A OR B) AND C. This mirrors how saved rules have always evaluated;
// do not introduce precedence.
func EvaluateRule(rule Rule, row Row) bool {
	if !rule.Enabled || len(rule.Conditions) == 0 {
		return false
	}

	result := EvaluateCondition(rule.Conditions[0], row)
	for i := 1; i < len(rule.Conditions); i++ {
		next := EvaluateCondition(rule.Conditions[i], row)
		if rule.Conditions[i-1].Logic == LogicOr {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}

// RowStyle merges the styles of every enabled, matching row-targeted
// rule, in declaration order. Later rules overwrite earlier ones field
// by field. Returns nil when nothing matched.
func RowStyle(row Row, rules []Rule) *Style {
	return mergeMatching(row, rules, func(r Rule) bool {
		return r.Target == TargetRow
	})
}

// CellStyle merges the styles of every enabled, matching cell-targeted
// rule whose TargetColumn equals columnKey. Returns nil when nothing
// matched.
func CellStyle(row Row, columnKey string, rules []Rule) *Style {
	return mergeMatching(row, rules, func(r Rule) bool {
		return r.Target == TargetCell && r.TargetColumn == columnKey
	})
}

func mergeMatching(row Row, rules []Rule, applies func(Rule) bool) *Style {
	var out *Style
	for _, rule := range rules {
		if !applies(rule) || !EvaluateRule(rule, row) {
			continue
		}
		if out == nil {
			out = &Style{}
		}
		out.Merge(rule.Style)
	}
	return out
}

// toNumber coerces a value to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(v)), 64)
		return f, err == nil
	}
}

// looseEqual implements "5" eq 5 semantics: numeric comparison when
// both sides coerce to numbers, string comparison otherwise.
func looseEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	return stringify(a) == stringify(b)
}

// foldString returns the lowercase string form for case-insensitive ops.
func foldString(v any) string {
	return strings.ToLower(stringify(v))
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// isEmptyValue reports nil, missing, or empty-string cells.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

package format

import "testing"

func TestEvaluateConditionGt(t *testing.T) {
	cond := Condition{Column: "age", Operator: OpGt, Value: 18}

	if !EvaluateCondition(cond, Row{"age": 20}) {
		t.Error("age 20 > 18 should match")
	}
	if EvaluateCondition(cond, Row{"age": 10}) {
		t.Error("age 10 > 18 should not match")
	}
}

func TestEvaluateConditionNumericStringCoercion(t *testing.T) {
	cond := Condition{Column: "qty", Operator: OpGte, Value: "10"}

	if !EvaluateCondition(cond, Row{"qty": "12"}) {
		t.Error(`"12" gte "10" should coerce numerically`)
	}
	if EvaluateCondition(cond, Row{"qty": "banana"}) {
		t.Error("non-numeric cell should never match an ordering operator")
	}
}

func TestEvaluateConditionLooseEquality(t *testing.T) {
	cond := Condition{Column: "id", Operator: OpEq, Value: 5}

	if !EvaluateCondition(cond, Row{"id": "5"}) {
		t.Error(`"5" eq 5 must match (loose equality)`)
	}
	if !EvaluateCondition(Condition{Column: "name", Operator: OpEq, Value: "Ada"}, Row{"name": "Ada"}) {
		t.Error("string eq string should match")
	}
	if EvaluateCondition(Condition{Column: "name", Operator: OpNeq, Value: "Ada"}, Row{"name": "Ada"}) {
		t.Error("neq on equal values should not match")
	}
}

func TestEvaluateConditionStringOpsCaseInsensitive(t *testing.T) {
	row := Row{"status": "Active"}

	cases := []struct {
		op    Operator
		value any
		want  bool
	}{
		{OpContains, "ACT", true},
		{OpContains, "zzz", false},
		{OpNotContains, "zzz", true},
		{OpStartsWith, "act", true},
		{OpStartsWith, "tive", false},
		{OpEndsWith, "IVE", true},
	}
	for _, tc := range cases {
		got := EvaluateCondition(Condition{Column: "status", Operator: tc.op, Value: tc.value}, row)
		if got != tc.want {
			t.Errorf("%s %v = %v, want %v", tc.op, tc.value, got, tc.want)
		}
	}
}

func TestEvaluateConditionEmptiness(t *testing.T) {
	// isEmpty/isNotEmpty ignore any supplied value.
	empty := Condition{Column: "note", Operator: OpIsEmpty, Value: "ignored"}

	if !EvaluateCondition(empty, Row{"note": ""}) {
		t.Error("empty string is empty")
	}
	if !EvaluateCondition(empty, Row{"note": nil}) {
		t.Error("nil is empty")
	}
	if !EvaluateCondition(empty, Row{}) {
		t.Error("missing column is empty")
	}
	if EvaluateCondition(empty, Row{"note": "x"}) {
		t.Error("non-empty string is not empty")
	}
	if EvaluateCondition(empty, Row{"note": 0}) {
		t.Error("zero is a value, not empty")
	}

	notEmpty := Condition{Column: "note", Operator: OpIsNotEmpty}
	if !EvaluateCondition(notEmpty, Row{"note": "x"}) {
		t.Error("isNotEmpty should match a non-empty cell")
	}
}

func TestEvaluateConditionUnknownOperator(t *testing.T) {
	if EvaluateCondition(Condition{Column: "a", Operator: "matches"}, Row{"a": 1}) {
		t.Error("unknown operator must never match")
	}
}

func TestEvaluateRuleLeftFoldOr(t *testing.T) {
	// Conditions evaluating to [false, true] chained by OR → true.
	rule := Rule{
		Enabled: true,
		Conditions: []Condition{
			{Column: "a", Operator: OpEq, Value: "nope", Logic: LogicOr},
			{Column: "b", Operator: OpEq, Value: 1},
		},
	}
	if !EvaluateRule(rule, Row{"a": "x", "b": 1}) {
		t.Error("false OR true should be true")
	}
}

func TestEvaluateRuleNoPrecedence(t *testing.T) {
	// A OR B AND C must evaluate as (A OR B) AND C.
	rule := Rule{
		Enabled: true,
		Conditions: []Condition{
			{Column: "a", Operator: OpEq, Value: 1, Logic: LogicOr},  // A: true
			{Column: "b", Operator: OpEq, Value: 1, Logic: LogicAnd}, // B: false
			{Column: "c", Operator: OpEq, Value: 1},                  // C: false
		},
	}
	row := Row{"a": 1, "b": 0, "c": 0}

	// With precedence (A OR (B AND C)) this would be true; the left
	// fold gives (true OR false) AND false = false.
	if EvaluateRule(rule, row) {
		t.Error("left-fold evaluation violated: got precedence semantics")
	}
}

func TestEvaluateRuleDisabledOrEmpty(t *testing.T) {
	match := Condition{Column: "a", Operator: OpEq, Value: 1}
	row := Row{"a": 1}

	if EvaluateRule(Rule{Enabled: false, Conditions: []Condition{match}}, row) {
		t.Error("disabled rule must never match")
	}
	if EvaluateRule(Rule{Enabled: true}, row) {
		t.Error("rule with zero conditions must never match")
	}
}

func TestRowStyleMergesFieldByField(t *testing.T) {
	rules := []Rule{
		{
			ID: "a", Target: TargetRow, Enabled: true,
			Conditions: []Condition{{Column: "x", Operator: OpEq, Value: 1}},
			Style:      Style{BackgroundColor: "#fff"},
		},
		{
			ID: "b", Target: TargetRow, Enabled: true,
			Conditions: []Condition{{Column: "x", Operator: OpEq, Value: 1}},
			Style:      Style{TextColor: "#000"},
		},
	}

	got := RowStyle(Row{"x": 1}, rules)
	if got == nil {
		t.Fatal("expected a style")
	}
	if got.BackgroundColor != "#fff" || got.TextColor != "#000" {
		t.Errorf("fields should merge, not replace: %+v", got)
	}
}

func TestRowStyleLaterRuleWins(t *testing.T) {
	rules := []Rule{
		{
			ID: "a", Target: TargetRow, Enabled: true,
			Conditions: []Condition{{Column: "x", Operator: OpIsNotEmpty}},
			Style:      Style{BackgroundColor: "red", TextColor: "white"},
		},
		{
			ID: "b", Target: TargetRow, Enabled: true,
			Conditions: []Condition{{Column: "x", Operator: OpIsNotEmpty}},
			Style:      Style{BackgroundColor: "green"},
		},
	}

	got := RowStyle(Row{"x": "v"}, rules)
	if got == nil {
		t.Fatal("expected a style")
	}
	if got.BackgroundColor != "green" {
		t.Errorf("later rule should overwrite: %q", got.BackgroundColor)
	}
	if got.TextColor != "white" {
		t.Errorf("untouched field should survive: %q", got.TextColor)
	}
}

func TestRowStyleNoMatchIsNil(t *testing.T) {
	rules := []Rule{{
		ID: "a", Target: TargetRow, Enabled: true,
		Conditions: []Condition{{Column: "x", Operator: OpEq, Value: "other"}},
		Style:      Style{BackgroundColor: "red"},
	}}

	if got := RowStyle(Row{"x": "v"}, rules); got != nil {
		t.Errorf("no match should yield nil, got %+v", got)
	}
}

func TestRowStyleSkipsDisabled(t *testing.T) {
	rules := []Rule{{
		ID: "a", Target: TargetRow, Enabled: false,
		Conditions: []Condition{{Column: "x", Operator: OpIsNotEmpty}},
		Style:      Style{BackgroundColor: "red"},
	}}

	if got := RowStyle(Row{"x": "v"}, rules); got != nil {
		t.Errorf("disabled rule contributed a style: %+v", got)
	}
}

func TestCellStyleTargetColumn(t *testing.T) {
	rules := []Rule{{
		ID: "a", Target: TargetCell, TargetColumn: "amount", Enabled: true,
		Conditions: []Condition{{Column: "amount", Operator: OpLt, Value: 0}},
		Style:      Style{TextColor: "red"},
	}}
	row := Row{"amount": -3}

	if got := CellStyle(row, "amount", rules); got == nil || got.TextColor != "red" {
		t.Errorf("cell rule should apply to its column, got %+v", got)
	}
	if got := CellStyle(row, "other", rules); got != nil {
		t.Errorf("cell rule leaked to another column: %+v", got)
	}
	if got := RowStyle(row, rules); got != nil {
		t.Errorf("cell rule must not apply at row level: %+v", got)
	}
}

func TestStyleCSS(t *testing.T) {
	css := Style{
		BackgroundColor: "#fee",
		TextColor:       "#900",
		FontWeight:      "bold",
		FontStyle:       "italic",
		TextDecoration:  "underline",
	}.CSS()

	want := map[string]string{
		"background-color": "#fee",
		"color":            "#900",
		"font-weight":      "bold",
		"font-style":       "italic",
		"text-decoration":  "underline",
	}
	for k, v := range want {
		if css[k] != v {
			t.Errorf("css[%q] = %q, want %q", k, css[k], v)
		}
	}

	if len((Style{}).CSS()) != 0 {
		t.Error("zero style should produce no CSS")
	}
}

package export

// The exported artifact carries its own implementation of the
// formatting rule engine and column derivation. These tests execute
// runtime.js in an embedded interpreter and drive the same cases
// through it and through the Go engine; any divergence between the
// live preview and an exported document fails here.

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/dop251/goja"

	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/format"
)

type jsRuntime struct {
	vm    *goja.Runtime
	forma *goja.Object
}

func loadRuntime(t *testing.T) *jsRuntime {
	t.Helper()
	vm := goja.New()
	vm.Set("console", map[string]any{
		"error": func(args ...any) { t.Logf("js console.error: %v", args) },
		"log":   func(args ...any) { t.Logf("js console.log: %v", args) },
	})
	if _, err := vm.RunString(runtimeJS); err != nil {
		t.Fatalf("load runtime.js: %v", err)
	}
	forma := vm.Get("Forma")
	if forma == nil {
		t.Fatal("runtime.js did not install Forma")
	}
	return &jsRuntime{vm: vm, forma: forma.ToObject(vm)}
}

func (r *jsRuntime) call(t *testing.T, name string, args ...any) goja.Value {
	t.Helper()
	fn, ok := goja.AssertFunction(r.forma.Get(name))
	if !ok {
		t.Fatalf("Forma.%s is not a function", name)
	}
	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = r.vm.ToValue(a)
	}
	out, err := fn(goja.Undefined(), values...)
	if err != nil {
		t.Fatalf("Forma.%s: %v", name, err)
	}
	return out
}

// fromJSON decodes a literal into both the Go type and the loose map
// shape handed to the interpreter, so one source feeds both engines.
func fromJSON[T any](t *testing.T, src string) (T, any) {
	t.Helper()
	var typed T
	if err := json.Unmarshal([]byte(src), &typed); err != nil {
		t.Fatalf("decode %q: %v", src, err)
	}
	var loose any
	if err := json.Unmarshal([]byte(src), &loose); err != nil {
		t.Fatalf("decode %q: %v", src, err)
	}
	return typed, loose
}

func TestConditionParity(t *testing.T) {
	rt := loadRuntime(t)

	cases := []struct {
		name string
		cond string
		row  string
	}{
		{"eq loose number", `{"column":"v","operator":"eq","value":5}`, `{"v":"5"}`},
		{"eq string", `{"column":"v","operator":"eq","value":"up"}`, `{"v":"up"}`},
		{"eq miss", `{"column":"v","operator":"eq","value":"up"}`, `{"v":"down"}`},
		{"neq", `{"column":"v","operator":"neq","value":1}`, `{"v":2}`},
		{"gt true", `{"column":"age","operator":"gt","value":18}`, `{"age":20}`},
		{"gt false", `{"column":"age","operator":"gt","value":18}`, `{"age":10}`},
		{"gt string operand", `{"column":"age","operator":"gt","value":"18"}`, `{"age":"20"}`},
		{"gt non-numeric", `{"column":"age","operator":"gt","value":18}`, `{"age":"old"}`},
		{"gte boundary", `{"column":"v","operator":"gte","value":3}`, `{"v":3}`},
		{"lt", `{"column":"v","operator":"lt","value":3}`, `{"v":2}`},
		{"lte boundary", `{"column":"v","operator":"lte","value":3}`, `{"v":3}`},
		{"contains case-insensitive", `{"column":"s","operator":"contains","value":"ERR"}`, `{"s":"an error here"}`},
		{"notContains", `{"column":"s","operator":"notContains","value":"x"}`, `{"s":"abc"}`},
		{"startsWith", `{"column":"s","operator":"startsWith","value":"AB"}`, `{"s":"abc"}`},
		{"endsWith", `{"column":"s","operator":"endsWith","value":"BC"}`, `{"s":"abc"}`},
		{"endsWith miss", `{"column":"s","operator":"endsWith","value":"ab"}`, `{"s":"abc"}`},
		{"isEmpty null", `{"column":"s","operator":"isEmpty","value":"ignored"}`, `{"s":null}`},
		{"isEmpty missing", `{"column":"s","operator":"isEmpty"}`, `{}`},
		{"isEmpty empty string", `{"column":"s","operator":"isEmpty"}`, `{"s":""}`},
		{"isEmpty zero is not empty", `{"column":"s","operator":"isEmpty"}`, `{"s":0}`},
		{"isNotEmpty", `{"column":"s","operator":"isNotEmpty","value":"ignored"}`, `{"s":"x"}`},
		{"unknown operator", `{"column":"s","operator":"between","value":1}`, `{"s":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cond, looseCond := fromJSON[format.Condition](t, tc.cond)
			row, looseRow := fromJSON[format.Row](t, tc.row)

			goGot := format.EvaluateCondition(cond, row)
			jsGot := rt.call(t, "evaluateCondition", looseCond, looseRow).ToBoolean()

			if goGot != jsGot {
				t.Errorf("divergence: go=%v js=%v", goGot, jsGot)
			}
		})
	}
}

func TestRuleParity(t *testing.T) {
	rt := loadRuntime(t)

	cases := []struct {
		name string
		rule string
		row  string
	}{
		{
			"left fold or-then-and",
			`{"id":"r","target":"row","enabled":true,"conditions":[
				{"column":"a","operator":"eq","value":1,"logic":"OR"},
				{"column":"b","operator":"eq","value":1,"logic":"AND"},
				{"column":"c","operator":"eq","value":1}
			],"style":{}}`,
			`{"a":0,"b":1,"c":1}`,
		},
		{
			"disabled never matches",
			`{"id":"r","target":"row","enabled":false,"conditions":[
				{"column":"a","operator":"eq","value":1}
			],"style":{}}`,
			`{"a":1}`,
		},
		{
			"empty conditions",
			`{"id":"r","target":"row","enabled":true,"conditions":[],"style":{}}`,
			`{"a":1}`,
		},
		{
			"or short chain",
			`{"id":"r","target":"row","enabled":true,"conditions":[
				{"column":"a","operator":"eq","value":1,"logic":"OR"},
				{"column":"b","operator":"eq","value":1}
			],"style":{}}`,
			`{"a":0,"b":1}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, looseRule := fromJSON[format.Rule](t, tc.rule)
			row, looseRow := fromJSON[format.Row](t, tc.row)

			goGot := format.EvaluateRule(rule, row)
			jsGot := rt.call(t, "evaluateRule", looseRule, looseRow).ToBoolean()

			if goGot != jsGot {
				t.Errorf("divergence: go=%v js=%v", goGot, jsGot)
			}
		})
	}
}

func TestStyleMergeParity(t *testing.T) {
	rt := loadRuntime(t)

	rulesJSON := `[
		{"id":"a","target":"row","enabled":true,
		 "conditions":[{"column":"v","operator":"gt","value":0}],
		 "style":{"backgroundColor":"#fff"}},
		{"id":"b","target":"row","enabled":true,
		 "conditions":[{"column":"v","operator":"gt","value":0}],
		 "style":{"textColor":"#000"}},
		{"id":"c","target":"cell","targetColumn":"v","enabled":true,
		 "conditions":[{"column":"v","operator":"gt","value":5}],
		 "style":{"fontWeight":"bold"}},
		{"id":"d","target":"row","enabled":false,
		 "conditions":[{"column":"v","operator":"gt","value":0}],
		 "style":{"backgroundColor":"#f00"}}
	]`
	rules, looseRules := fromJSON[[]format.Rule](t, rulesJSON)

	rows := []string{`{"v":10}`, `{"v":1}`, `{"v":0}`, `{"v":null}`}
	for _, rowJSON := range rows {
		row, looseRow := fromJSON[format.Row](t, rowJSON)

		goRow := styleMap(format.RowStyle(row, rules))
		jsRow := rt.call(t, "rowStyle", looseRow, looseRules).Export()
		if !reflect.DeepEqual(goRow, jsRow) {
			t.Errorf("rowStyle(%s): go=%v js=%v", rowJSON, goRow, jsRow)
		}

		goCell := styleMap(format.CellStyle(row, "v", rules))
		jsCell := rt.call(t, "cellStyle", looseRow, "v", looseRules).Export()
		if !reflect.DeepEqual(goCell, jsCell) {
			t.Errorf("cellStyle(%s): go=%v js=%v", rowJSON, goCell, jsCell)
		}
	}
}

// styleMap projects a Go style into the loose object shape the JS
// engine returns: non-empty fields only, nil when nothing matched.
func styleMap(s *format.Style) any {
	if s == nil {
		return nil
	}
	m := map[string]any{}
	if s.BackgroundColor != "" {
		m["backgroundColor"] = s.BackgroundColor
	}
	if s.TextColor != "" {
		m["textColor"] = s.TextColor
	}
	if s.FontWeight != "" {
		m["fontWeight"] = s.FontWeight
	}
	if s.FontStyle != "" {
		m["fontStyle"] = s.FontStyle
	}
	if s.TextDecoration != "" {
		m["textDecoration"] = s.TextDecoration
	}
	return m
}

func TestColumnDerivationParity(t *testing.T) {
	rt := loadRuntime(t)

	rowsJSON := `[{"id":1,"user_name":"a","zeta":true,"alpha":null}]`
	rows, looseRows := fromJSON[[]map[string]any](t, rowsJSON)

	goCols := datasource.DeriveColumns(rows)
	jsCols := rt.call(t, "deriveColumns", looseRows).Export()

	var jsDecoded []datasource.Column
	data, _ := json.Marshal(jsCols)
	if err := json.Unmarshal(data, &jsDecoded); err != nil {
		t.Fatalf("decode js columns: %v", err)
	}
	if !reflect.DeepEqual(goCols, jsDecoded) {
		t.Errorf("divergence: go=%v js=%v", goCols, jsDecoded)
	}

	// The documented shape both must produce.
	want := []datasource.Column{
		{Key: "alpha", Label: "Alpha"},
		{Key: "id", Label: "Id"},
		{Key: "user_name", Label: "User name"},
		{Key: "zeta", Label: "Zeta"},
	}
	if !reflect.DeepEqual(goCols, want) {
		t.Errorf("derived columns = %v, want %v", goCols, want)
	}
}

func TestColumnConfigParity(t *testing.T) {
	rt := loadRuntime(t)

	rows := []map[string]any{{"id": 1, "name": "a", "secret": "x"}}
	cfgJSON := `[
		{"key":"name","visible":true,"label":"Person"},
		{"key":"secret","visible":false},
		{"key":"id","visible":true}
	]`
	cfgs, looseCfgs := fromJSON[[]datasource.ColumnConfig](t, cfgJSON)

	goCols := datasource.ApplyColumnConfig(datasource.DeriveColumns(rows), cfgs)

	jsDerived := rt.call(t, "deriveColumns", rows)
	jsCols := rt.call(t, "applyColumnConfig", jsDerived, looseCfgs).Export()

	var jsDecoded []datasource.Column
	data, _ := json.Marshal(jsCols)
	if err := json.Unmarshal(data, &jsDecoded); err != nil {
		t.Fatalf("decode js columns: %v", err)
	}
	if !reflect.DeepEqual(goCols, jsDecoded) {
		t.Errorf("divergence: go=%v js=%v", goCols, jsDecoded)
	}
}

func TestHandlerContractParity(t *testing.T) {
	rt := loadRuntime(t)

	// Same (event, component) contract as the live engine: the body
	// sees exactly two bindings and mutates component in place.
	handler := rt.call(t, "compileHandler", "component.props.count = (component.props.count || 0) + 1; component.seen = event.type;")
	fn, ok := goja.AssertFunction(handler)
	if !ok {
		t.Fatal("compileHandler did not return a function")
	}

	component := rt.vm.NewObject()
	component.Set("props", rt.vm.NewObject())
	if _, err := fn(goja.Undefined(), rt.vm.ToValue(map[string]any{"type": "click"}), component); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	if got := component.Get("seen").String(); got != "click" {
		t.Errorf("event binding broken: %q", got)
	}
	props := component.Get("props").ToObject(rt.vm)
	if got := props.Get("count").ToInteger(); got != 1 {
		t.Errorf("component mutation broken: %d", got)
	}

	// Broken code compiles to a no-op, never an exception.
	broken := rt.call(t, "compileHandler", "this is not js (((")
	bfn, _ := goja.AssertFunction(broken)
	if _, err := bfn(goja.Undefined(), goja.Null(), goja.Null()); err != nil {
		t.Errorf("broken handler must be a silent no-op: %v", err)
	}

	throwing := rt.call(t, "compileHandler", `throw new Error("user bug");`)
	tfn, _ := goja.AssertFunction(throwing)
	if _, err := tfn(goja.Undefined(), goja.Null(), goja.Null()); err != nil {
		t.Errorf("throwing handler must be caught: %v", err)
	}
}

func TestNormalizeResultParity(t *testing.T) {
	rt := loadRuntime(t)

	// Bare array and {columns, data} both normalize the same way the
	// Go client decodes responses.
	bare := rt.call(t, "normalizeResult", []any{map[string]any{"a": 1}}).Export()
	m, _ := bare.(map[string]any)
	if m == nil {
		t.Fatal("normalizeResult returned nothing")
	}
	rows, _ := m["rows"].([]any)
	if len(rows) != 1 {
		t.Errorf("rows = %v", m["rows"])
	}

	shaped := rt.call(t, "normalizeResult", map[string]any{
		"columns": []any{map[string]any{"key": "a", "label": "A"}},
		"data":    []any{map[string]any{"a": 1}, map[string]any{"a": 2}},
	}).Export()
	m, _ = shaped.(map[string]any)
	rows, _ = m["rows"].([]any)
	if len(rows) != 2 {
		t.Errorf("rows = %v", m["rows"])
	}
	cols, _ := m["columns"].([]any)
	if len(cols) != 1 {
		t.Errorf("columns = %v", m["columns"])
	}
}

package condition

import (
	"errors"
	"testing"

	"github.com/mlind/stepflow/pkg/api"
)

func TestEvaluateGrammar(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{
			"age":  18,
			"name": "ada",
			"tier": "premium",
		},
		"count":   float64(100),
		"ok":      true,
		"blank":   "",
		"tags":    []any{"a", "b"},
		"nothing": nil,
	}

	cases := []struct {
		expr string
		want bool
	}{
		// Bare numeric ordering.
		{"5 > 3", true},
		{"3 > 5", false},
		{"5 >= 5", true},
		{"5 <= 4", false},
		{"2 < 10", true},

		// Loose vs strict equality.
		{`"100" = 100`, true},
		{`"100" is 100`, false},
		{`100 is 100`, true},
		{`"100" is "100"`, true},
		{`"100" != 100`, false},
		{`"100" is not 100`, true},

		// Path operands.
		{"user.age >= 18", true},
		{"user.age > 18", false},
		{`user.name = "ada"`, true},
		{`user.tier != "premium"`, false},
		{"count = 100", true},

		// Barewords that match no path compare as string literals.
		{"user.name = ada", true},
		{"user.tier = premium", true},
		{"user.tier is premium", true},
		{"user.tier != premium", false},
		{"user.tier = basic", false},
		{"user.tier is not basic", true},
		{"premium = user.tier", true},

		// Keywords.
		{"ok = true", true},
		{"ok is true", true},
		{"user.age != null", true},
		{"nothing = null", true},
		{"missing.path = null", false}, // only the null keyword and nil values are null
		{"blank = empty", true},
		{"user.name = empty", false},
		{"tags != empty", true},
		{`ok = "yes"`, true}, // loose bool coercion

		// String ordering is lexicographic.
		{`"apple" < "banana"`, true},
		{`user.name >= "aa"`, true},

		// Quoted operators are literals, not operators.
		{`user.tier = "premium"`, true},

		// Operator-free forms.
		{"true", true},
		{"yes", true},
		{"1", true},
		{"false", false},
		{"no", false},
		{"0", false},
		{"ok", true},
		{"blank", false},
		{"user.age", true},
		{"missing.path", false},
	}

	for _, tc := range cases {
		got, err := Evaluate(tc.expr, data)
		if err != nil {
			t.Errorf("Evaluate(%q) unexpected error: %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	data := map[string]any{"ok": true}

	cases := []string{
		"",
		"   ",
		"= 5",          // missing left operand
		"5 =",          // missing right operand
		"a b = c",      // multi-token operand
		"5 > yes",      // not ordering-comparable
		"ok > 3",       // bool vs number ordering
		`"unterminated`, // bad quote
	}

	for _, expr := range cases {
		_, err := Evaluate(expr, data)
		var evalErr *api.EvaluationError
		if !errors.As(err, &evalErr) {
			t.Errorf("Evaluate(%q) = %v, want EvaluationError", expr, err)
		}
	}
}

func TestEvaluateAll(t *testing.T) {
	data := map[string]any{"a": 1, "b": 2}

	ok, err := EvaluateAll([]string{"a = 1", "b > 1"}, data)
	if err != nil || !ok {
		t.Fatalf("all-true conjunction: %v, %v", ok, err)
	}

	ok, err = EvaluateAll([]string{"a = 1", "b > 99"}, data)
	if err != nil || ok {
		t.Fatalf("false member should fail the conjunction: %v, %v", ok, err)
	}

	ok, err = EvaluateAll(nil, data)
	if err != nil || !ok {
		t.Fatalf("empty conjunction should be vacuously true: %v, %v", ok, err)
	}

	if _, err = EvaluateAll([]string{"= bad"}, data); err == nil {
		t.Fatal("malformed member should surface its error")
	}
}

func TestLookup(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 42},
			"list": []any{
				"zero",
				map[string]any{"name": "one"},
			},
		},
	}

	if v, ok := Lookup(data, "a.b.c"); !ok || v != 42 {
		t.Fatalf("a.b.c = %v, %v", v, ok)
	}
	if v, ok := Lookup(data, "a.list.0"); !ok || v != "zero" {
		t.Fatalf("a.list.0 = %v, %v", v, ok)
	}
	if v, ok := Lookup(data, "a.list.1.name"); !ok || v != "one" {
		t.Fatalf("a.list.1.name = %v, %v", v, ok)
	}

	for _, miss := range []string{"", "a.b.c.d", "a.x", "a.list.9", "a.list.x", "a..b"} {
		if _, ok := Lookup(data, miss); ok {
			t.Errorf("Lookup(%q) should miss", miss)
		}
	}
}

package condition

import (
	"reflect"
	"testing"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"user":  map[string]any{"name": "ada", "age": 36},
		"total": 99.5,
		"ok":    true,
	}

	cases := []struct {
		in   string
		want string
	}{
		{"hello {{ user.name }}", "hello ada"},
		{"hello {{user.name}}", "hello ada"},
		{"hello {user.name}", "hello ada"},
		{"age={{ user.age }} total={total}", "age=36 total=99.5"},
		{"flag: {ok}", "flag: true"},
		{"no placeholders", "no placeholders"},
		{"{{ missing.path }} stays", "{{ missing.path }} stays"},
		{"{missing} stays", "{missing} stays"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Render(tc.in, data); got != tc.want {
			t.Errorf("Render(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderParams(t *testing.T) {
	data := map[string]any{"order": map[string]any{"id": "o-7", "total": 12}}

	params := map[string]any{
		"subject": "order {{ order.id }}",
		"amount":  7,
		"nested": map[string]any{
			"line": "total is {order.total}",
		},
		"list": []any{"id={{ order.id }}", 3, map[string]any{"k": "{order.id}"}},
	}

	got := RenderParams(params, data)
	want := map[string]any{
		"subject": "order o-7",
		"amount":  7,
		"nested": map[string]any{
			"line": "total is 12",
		},
		"list": []any{"id=o-7", 3, map[string]any{"k": "o-7"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RenderParams = %#v, want %#v", got, want)
	}

	// The input must not be modified.
	if params["subject"] != "order {{ order.id }}" {
		t.Fatal("RenderParams mutated its input")
	}

	if RenderParams(nil, data) != nil {
		t.Fatal("nil params should stay nil")
	}
}

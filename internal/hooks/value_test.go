package hooks

import (
	"encoding/json"
	"testing"
)

func TestValueDecodeOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ValueKind
	}{
		{name: "null", raw: `null`, want: KindNull},
		{name: "true", raw: `true`, want: KindBool},
		{name: "false", raw: `false`, want: KindBool},
		{name: "integer", raw: `5`, want: KindInt},
		{name: "negative integer", raw: `-12`, want: KindInt},
		{name: "float", raw: `5.5`, want: KindFloat},
		{name: "exponent float", raw: `1e3`, want: KindFloat},
		{name: "numeric string stays string", raw: `"5"`, want: KindString},
		{name: "boolean string stays string", raw: `"true"`, want: KindString},
		{name: "plain string", raw: `"hello"`, want: KindString},
		{name: "array", raw: `[1, "two", 3.5]`, want: KindArray},
		{name: "object", raw: `{"a": 1}`, want: KindObject},
		{name: "empty object", raw: `{}`, want: KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.raw), &v); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.raw, err)
			}
			if v.Kind() != tt.want {
				t.Errorf("Unmarshal(%s) kind = %d, want %d", tt.raw, v.Kind(), tt.want)
			}
		})
	}
}

func TestValueNested(t *testing.T) {
	raw := `{"command": "go test", "timeout": 30, "ratio": 0.5, "flags": ["-v", 2], "meta": {"deep": null}}`

	var v Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if got := v.StringAt("command"); got != "go test" {
		t.Errorf("command = %q, want %q", got, "go test")
	}
	if got, ok := v.Get("timeout").AsInt(); !ok || got != 30 {
		t.Errorf("timeout = %d (ok=%v), want 30", got, ok)
	}
	if got, ok := v.Get("ratio").AsFloat(); !ok || got != 0.5 {
		t.Errorf("ratio = %v (ok=%v), want 0.5", got, ok)
	}

	flags, ok := v.Get("flags").AsArray()
	if !ok || len(flags) != 2 {
		t.Fatalf("flags = %v (ok=%v), want 2-element array", flags, ok)
	}
	if s, _ := flags[0].AsString(); s != "-v" {
		t.Errorf("flags[0] = %q, want %q", s, "-v")
	}
	if i, _ := flags[1].AsInt(); i != 2 {
		t.Errorf("flags[1] = %d, want 2", i)
	}

	if !v.Get("meta").Get("deep").IsNull() {
		t.Error("meta.deep should be null")
	}
	if !v.Get("missing").IsNull() {
		t.Error("missing key should read as null")
	}
}

func TestValueRoundTrip(t *testing.T) {
	raw := `{"a":[1,2.5,"3"],"b":{"c":true},"d":null}`

	var v Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var again Value
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-Unmarshal error: %v", err)
	}
	if again.Get("a").Kind() != KindArray || again.Get("b").Get("c").Kind() != KindBool {
		t.Errorf("round trip lost structure: %s", out)
	}
}

func TestValueString(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"b": 2, "a": [1, "x"]}`), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	// Object keys render sorted so output is stable.
	want := "{a: [1, x], b: 2}"
	if got := v.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

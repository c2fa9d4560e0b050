package router

import (
	"slices"
	"testing"
)

func TestBind(t *testing.T) {
	type Params struct {
		Name    string   `param:"name"`
		ID      int      `param:"id"`
		Big     int64    `param:"big"`
		Count   uint     `param:"count"`
		Ratio   float64  `param:"ratio"`
		Draft   bool     `param:"draft"`
		Path    []string `param:"path"`
		Ignored string
	}

	params := map[string]string{
		"name":  "test",
		"id":    "123",
		"big":   "9223372036854775807",
		"count": "7",
		"ratio": "0.5",
		"draft": "true",
		"path":  "a/b/c",
	}

	var p Params
	if err := Bind(params, &p); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}

	if p.Name != "test" || p.ID != 123 || p.Big != 9223372036854775807 || p.Count != 7 {
		t.Errorf("scalars = %+v", p)
	}
	if p.Ratio != 0.5 || !p.Draft {
		t.Errorf("Ratio=%v Draft=%v", p.Ratio, p.Draft)
	}
	if !slices.Equal(p.Path, []string{"a", "b", "c"}) {
		t.Errorf("Path = %v, want [a b c]", p.Path)
	}
}

func TestBindOptional(t *testing.T) {
	type Params struct {
		Lang *string `param:"lang"`
		Page *int    `param:"page"`
	}

	var absent Params
	if err := Bind(map[string]string{}, &absent); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if absent.Lang != nil || absent.Page != nil {
		t.Errorf("absent params = %+v, want nil pointers", absent)
	}

	var present Params
	if err := Bind(map[string]string{"lang": "fr", "page": "3"}, &present); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if present.Lang == nil || *present.Lang != "fr" || present.Page == nil || *present.Page != 3 {
		t.Errorf("present params = %+v", present)
	}
}

func TestBindErrors(t *testing.T) {
	type IntParams struct {
		ID int8 `param:"id"`
	}
	type MapParams struct {
		M map[string]string `param:"m"`
	}

	tests := []struct {
		name   string
		params map[string]string
		target any
	}{
		{"not a number", map[string]string{"id": "abc"}, &IntParams{}},
		{"overflow", map[string]string{"id": "300"}, &IntParams{}},
		{"unsupported", map[string]string{"m": "x"}, &MapParams{}},
		{"not a pointer", map[string]string{}, IntParams{}},
		{"pointer to non-struct", map[string]string{}, new(int)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Bind(tt.params, tt.target); err == nil {
				t.Error("Bind() should fail")
			}
		})
	}
}

func TestResolutionBind(t *testing.T) {
	res := &Resolution{Params: map[string]string{"catchall": "docs/intro"}}

	var p struct {
		Catchall []string `param:"catchall"`
	}
	if err := res.Bind(&p); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if !slices.Equal(p.Catchall, []string{"docs", "intro"}) {
		t.Errorf("Catchall = %v", p.Catchall)
	}
}

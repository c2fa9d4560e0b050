package router

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestNewTableOrder(t *testing.T) {
	table, err := NewTable([]RouteDef{
		{ID: "/b", Page: &Composition{Leaf: 0}},
		{ID: "/a", Page: &Composition{Leaf: 1}},
		{ID: "/api/[x=integer]", Endpoint: NewEndpointRef("api.js", "", nil)},
	})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}

	var ids []string
	for _, r := range table.Routes() {
		ids = append(ids, r.ID)
	}
	if want := []string{"/b", "/a", "/api/[x=integer]"}; !slices.Equal(ids, want) {
		t.Errorf("Routes() = %v, want %v", ids, want)
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}

	r, ok := table.Route("/api/[x=integer]")
	if !ok {
		t.Fatal("Route() did not find endpoint route")
	}
	if r.Kind() != "endpoint" || r.Page() != nil || r.Endpoint() == nil {
		t.Errorf("endpoint route Kind=%s Page=%v", r.Kind(), r.Page())
	}
	if r, _ := table.Route("/a"); r.Kind() != "page" || r.Page().Leaf != 1 {
		t.Errorf("page route Kind=%s", r.Kind())
	}
	if got := table.Matchers(); !slices.Equal(got, []string{"integer"}) {
		t.Errorf("Matchers() = %v, want [integer]", got)
	}
}

func TestNewTableCopiesComposition(t *testing.T) {
	comp := &Composition{Layouts: []int{0}, Errors: []int{1}, Leaf: 2}
	table, err := NewTable([]RouteDef{{ID: "/", Page: comp}})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	comp.Layouts[0] = 9

	r, _ := table.Route("/")
	if r.Page().Layouts[0] != 0 {
		t.Error("table shares the caller's layout slice")
	}
}

func TestNewTableValidation(t *testing.T) {
	page := &Composition{Leaf: 0}
	ep := NewEndpointRef("api.js", "", nil)

	tests := []struct {
		name string
		defs []RouteDef
		want ValidationErrorType
	}{
		{
			name: "invalid id",
			defs: []RouteDef{{ID: "no-slash", Page: page}},
			want: ErrorInvalidRouteID,
		},
		{
			name: "duplicate",
			defs: []RouteDef{{ID: "/a", Page: page}, {ID: "/a", Page: page}},
			want: ErrorDuplicateRoute,
		},
		{
			name: "param mismatch",
			defs: []RouteDef{{ID: "/[slug]", Params: []ParamSpec{{Name: "id"}}, Page: page}},
			want: ErrorParamMismatch,
		},
		{
			name: "rest flags mismatch",
			defs: []RouteDef{{ID: "/[...path]", Params: []ParamSpec{{Name: "path"}}, Page: page}},
			want: ErrorParamMismatch,
		},
		{
			name: "missing target",
			defs: []RouteDef{{ID: "/a"}},
			want: ErrorMissingTarget,
		},
		{
			name: "ambiguous target",
			defs: []RouteDef{{ID: "/a", Page: page, Endpoint: ep}},
			want: ErrorAmbiguousTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.defs)
			if table != nil {
				t.Error("NewTable returned a table despite errors")
			}
			var multi *MultiValidationError
			if !errors.As(err, &multi) {
				t.Fatalf("err = %v, want *MultiValidationError", err)
			}
			if len(multi.Errors) != 1 || multi.Errors[0].Type != tt.want {
				t.Errorf("errors = %v, want one %s", multi.Errors, tt.want)
			}
		})
	}
}

func TestNewTableCollectsAllErrors(t *testing.T) {
	_, err := NewTable([]RouteDef{
		{ID: "bad"},
		{ID: "/ok", Page: &Composition{}},
		{ID: "/ok", Page: &Composition{}},
		{ID: "/none"},
	})
	var multi *MultiValidationError
	if !errors.As(err, &multi) {
		t.Fatalf("err = %v, want *MultiValidationError", err)
	}
	if len(multi.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(multi.Errors), err)
	}
	if !strings.HasPrefix(err.Error(), "3 route validation errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParamMismatchDetails(t *testing.T) {
	_, err := NewTable([]RouteDef{{
		ID:     "/[[lang=locale]]/[...rest]",
		Params: []ParamSpec{{Name: "lang"}},
		Page:   &Composition{},
	}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "[[lang=locale]], [...rest]") {
		t.Errorf("Error() = %q, want formatted params", err.Error())
	}
}

func TestTableLink(t *testing.T) {
	table, err := NewTable([]RouteDef{{ID: "/blog/[slug]", Page: &Composition{}}})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	got, err := table.Link("/blog/[slug]", map[string]string{"slug": "go"})
	if err != nil || got != "/blog/go" {
		t.Errorf("Link = (%q, %v), want /blog/go", got, err)
	}
	if _, err := table.Link("/nope", nil); err == nil {
		t.Error("Link for unknown route should fail")
	}
}

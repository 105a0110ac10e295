package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestRenderIntList(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want string
	}{
		{"empty", nil, "(NULL)"},
		{"single", []int{7}, "(7)"},
		{"multiple", []int{12, 34, 56}, "(12, 34, 56)"},
		{"negative", []int{-1}, "(-1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderIntList(tt.ids); got != tt.want {
				t.Errorf("RenderIntList(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestExpandListParams(t *testing.T) {
	sql := "SELECT 1 WHERE id IN @storefront_ids AND ws = @workspace_id"
	params := ParamMap{
		"storefront_ids": []int{1, 2},
		"workspace_id":   9,
	}

	got, scalars := ExpandListParams(sql, params)

	if !strings.Contains(got, "IN (1, 2)") {
		t.Errorf("rewritten sql = %q, want literal tuple", got)
	}
	if strings.Contains(got, "@storefront_ids") {
		t.Errorf("placeholder survived substitution: %q", got)
	}
	if _, present := scalars["storefront_ids"]; present {
		t.Error("list param still present in scalars")
	}
	if scalars["workspace_id"] != 9 {
		t.Errorf("workspace_id = %v, want 9", scalars["workspace_id"])
	}
}

func TestExpandListParams_UnreferencedListDropped(t *testing.T) {
	sql := "SELECT 1 WHERE ws = @workspace_id"
	params := ParamMap{
		"storefront_ids": []int{1, 2},
		"workspace_id":   9,
	}

	got, scalars := ExpandListParams(sql, params)

	if got != sql {
		t.Errorf("sql rewritten unexpectedly: %q", got)
	}
	if len(scalars) != 1 {
		t.Errorf("scalars = %v, want only workspace_id", scalars)
	}
}

func TestBindNamed(t *testing.T) {
	sql := "SELECT 1 WHERE ws = @workspace_id AND d BETWEEN @start_date AND @end_date"
	params := ParamMap{
		"workspace_id": 9,
		"start_date":   "2024-01-01",
		"end_date":     "2024-01-30",
	}

	bound, args := BindNamed(sql, params)

	want := "SELECT 1 WHERE ws = $1 AND d BETWEEN $2 AND $3"
	if bound != want {
		t.Errorf("bound = %q, want %q", bound, want)
	}
	if !reflect.DeepEqual(args, []any{9, "2024-01-01", "2024-01-30"}) {
		t.Errorf("args = %v", args)
	}
}

func TestBindNamed_RepeatedName(t *testing.T) {
	sql := "SELECT 1 WHERE (@device IS NULL OR col = @device)"
	bound, args := BindNamed(sql, ParamMap{"device": "Mobile"})

	want := "SELECT 1 WHERE ($1 IS NULL OR col = $1)"
	if bound != want {
		t.Errorf("bound = %q, want %q", bound, want)
	}
	if len(args) != 1 || args[0] != "Mobile" {
		t.Errorf("args = %v, want single Mobile", args)
	}
}

func TestBindNamed_MissingNameBindsNull(t *testing.T) {
	sql := "SELECT 1 WHERE (@device IS NULL OR col = @device)"
	bound, args := BindNamed(sql, ParamMap{})

	if bound != "SELECT 1 WHERE ($1 IS NULL OR col = $1)" {
		t.Errorf("bound = %q", bound)
	}
	if len(args) != 1 || args[0] != nil {
		t.Errorf("args = %v, want [<nil>]", args)
	}
}

func TestBindNamed_IgnoresBareAt(t *testing.T) {
	sql := "SELECT 'a@b.com' AS email"
	bound, args := BindNamed(sql, ParamMap{})

	// '@b' looks like a placeholder and binds NULL; only a bare '@' before a
	// non-identifier byte passes through untouched.
	if len(args) != 1 {
		t.Fatalf("args = %v", args)
	}
	if !strings.Contains(bound, "$1") {
		t.Errorf("bound = %q", bound)
	}
}

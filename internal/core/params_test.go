package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildParams_FullSet(t *testing.T) {
	registerTestCatalog(t)

	inputs := InputSet{
		"workspace_id":   " 100 ",
		"storefront_ids": "3, 1, 3",
		"start_date":     "2024-01-01",
		"end_date":       "2024-01-30",
		"device_type":    "Mobile",
	}

	params, err := BuildParams("performance_report", inputs)
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}

	if got := params["workspace_id"]; got != 100 {
		t.Errorf("workspace_id = %v (%T), want int 100", got, got)
	}
	// Order and duplicates preserved as entered
	if got := params["storefront_ids"]; !reflect.DeepEqual(got, []int{3, 1, 3}) {
		t.Errorf("storefront_ids = %v, want [3 1 3]", got)
	}
	if got := params["start_date"]; got != "2024-01-01" {
		t.Errorf("start_date = %v, want 2024-01-01", got)
	}
	if got := params["end_date"]; got != "2024-01-30" {
		t.Errorf("end_date = %v, want 2024-01-30", got)
	}
	if got := params["device_type"]; got != "Mobile" {
		t.Errorf("device_type = %v, want Mobile", got)
	}
}

func TestBuildParams_NoneOmitted(t *testing.T) {
	registerTestCatalog(t)

	inputs := validInputs()
	inputs["device_type"] = SentinelNone

	params, err := BuildParams("performance_report", inputs)
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}

	if _, present := params["device_type"]; present {
		t.Error("device_type bound despite None sentinel")
	}
}

func TestBuildParams_EmptySelectOmitted(t *testing.T) {
	registerTestCatalog(t)

	inputs := validInputs()
	inputs["device_type"] = ""

	params, err := BuildParams("performance_report", inputs)
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}

	if _, present := params["device_type"]; present {
		t.Error("device_type bound despite empty value")
	}
}

func TestBuildParams_UndeclaredFieldDropped(t *testing.T) {
	registerTestCatalog(t)

	inputs := InputSet{
		"workspace_id": "7",
		"device_type":  "Mobile",
	}

	params, err := BuildParams("workspace_report", inputs)
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}

	if len(params) != 1 {
		t.Errorf("params = %v, want only workspace_id", params)
	}
}

func TestBuildParams_UnknownSource(t *testing.T) {
	registerTestCatalog(t)

	_, err := BuildParams("nope", validInputs())
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error = %v, want ErrUnknownSource", err)
	}
}

func TestBuildParams_NonNumericToken(t *testing.T) {
	registerTestCatalog(t)

	inputs := validInputs()
	inputs["storefront_ids"] = "1,x"

	if _, err := BuildParams("performance_report", inputs); err == nil {
		t.Error("expected error for non-numeric token")
	}
}

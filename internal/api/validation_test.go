package api

import (
	"strings"
	"testing"
)

type testValidateStruct struct {
	Author    string `json:"author" validate:"required,min=1,max=64"`
	Severity  string `json:"severity" validate:"omitempty,oneof=warning critical unknown"`
	ReviewURL string `json:"review_url" validate:"omitempty,url"`
	Untagged  string `validate:"omitempty,max=4"`
}

func TestValidate_ValidInput(t *testing.T) {
	s := testValidateStruct{
		Author:   "ops",
		Severity: "critical",
	}
	if errs := Validate(s); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	errs := Validate(testValidateStruct{})
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["author"] != "is required" {
		t.Errorf("author error = %q, want %q", errs["author"], "is required")
	}
}

func TestValidate_MaxLength(t *testing.T) {
	s := testValidateStruct{Author: strings.Repeat("a", 65)}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["author"] != "must be at most 64 characters" {
		t.Errorf("author error = %q, want %q", errs["author"], "must be at most 64 characters")
	}
}

func TestValidate_InvalidOneOf(t *testing.T) {
	s := testValidateStruct{Author: "ops", Severity: "apocalyptic"}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["severity"] != "must be one of: warning critical unknown" {
		t.Errorf("severity error = %q", errs["severity"])
	}
}

func TestValidate_InvalidURL(t *testing.T) {
	s := testValidateStruct{Author: "ops", ReviewURL: "not a url"}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["review_url"] != "must be a valid URL" {
		t.Errorf("review_url error = %q", errs["review_url"])
	}
}

func TestValidate_UntaggedFieldUsesGoName(t *testing.T) {
	s := testValidateStruct{Author: "ops", Untagged: "toolong"}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := errs["Untagged"]; !ok {
		t.Errorf("expected Go field name for untagged field, got %v", errs)
	}
}

func TestValidate_OmitsEmptyOptional(t *testing.T) {
	if errs := Validate(testValidateStruct{Author: "ops"}); errs != nil {
		t.Errorf("expected no errors for empty optional fields, got %v", errs)
	}
}

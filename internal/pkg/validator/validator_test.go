package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsEmpty(c.input), "IsEmpty(%q)", c.input)
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31", "2024-02-29"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023-02-29", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		assert.True(t, ok, s)
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		assert.False(t, ok, s)
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "employee_id", Message: "employee_id is required"},
		{Field: "date", Message: "date must be in YYYY-MM-DD format"},
	}

	assert.Equal(t, "employee_id: employee_id is required; date: date must be in YYYY-MM-DD format", errs.Error())
	assert.Equal(t, map[string]string{
		"employee_id": "employee_id is required",
		"date":        "date must be in YYYY-MM-DD format",
	}, errs.ToMap())
}

func TestIsInSlice(t *testing.T) {
	assert.True(t, IsInSlice("LATE", []string{"PRESENT", "LATE"}))
	assert.False(t, IsInSlice("late", []string{"PRESENT", "LATE"}))
}

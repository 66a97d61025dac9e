package rules

import (
	"errors"
	"testing"
)

func validInput() EntryInput {
	return EntryInput{
		Code:        "7317.00.30",
		Category:    "Steel Derivative",
		Description: "nails, tacks and staples",
		MetalType:   MetalSteel,
	}
}

func TestValidateEntry_Valid(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"plain code", "7317.00.30"},
		{"four digit heading", "7317"},
		{"range", "7317.00 - 7318.00"},
		{"range without spaces", "7317.00-7318.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Code = tt.code
			out, err := ValidateEntry(in)
			if err != nil {
				t.Fatalf("ValidateEntry(%q): %v", tt.code, err)
			}
			if out.Code != tt.code {
				t.Errorf("Code = %q, want %q", out.Code, tt.code)
			}
		})
	}
}

func TestValidateEntry_TrimsWhitespace(t *testing.T) {
	in := validInput()
	in.Code = "  7317.00.30  "
	in.Category = " Steel Derivative "

	out, err := ValidateEntry(in)
	if err != nil {
		t.Fatalf("ValidateEntry: %v", err)
	}
	if out.Code != "7317.00.30" {
		t.Errorf("Code = %q, want trimmed", out.Code)
	}
	if out.Category != "Steel Derivative" {
		t.Errorf("Category = %q, want trimmed", out.Category)
	}
}

func TestValidateEntry_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*EntryInput)
		wantField string
	}{
		{"empty code", func(e *EntryInput) { e.Code = "   " }, "code"},
		{"letters in code", func(e *EntryInput) { e.Code = "73A7.00" }, "code"},
		{"slash in code", func(e *EntryInput) { e.Code = "7317/00" }, "code"},
		{"double range", func(e *EntryInput) { e.Code = "7317 - 7318 - 7319" }, "code"},
		{"empty category", func(e *EntryInput) { e.Category = "" }, "category"},
		{"empty description", func(e *EntryInput) { e.Description = "\t" }, "description"},
		{"bad metal type", func(e *EntryInput) { e.MetalType = "Copper" }, "metalType"},
		{"empty metal type", func(e *EntryInput) { e.MetalType = "" }, "metalType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := ValidateEntry(in)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestSanitizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"9903.81.91", "9903.81.91"},
		{" 9903.81.91 ", "9903.81.91"},
		{"9903,81,91", "99038191"},
		{"abc", ""},
		{"99-03", "9903"},
	}

	for _, tt := range tests {
		if got := SanitizeCode(tt.in); got != tt.want {
			t.Errorf("SanitizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

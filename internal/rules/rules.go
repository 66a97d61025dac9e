// Package rules validates manual override entries and HTS code input before
// anything is persisted or sent upstream.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Metal types an override entry may carry.
const (
	MetalAluminum = "Aluminum"
	MetalSteel    = "Steel"
	MetalBoth     = "Both"
)

// codePattern matches an HTS code of digits and periods, optionally followed
// by a dash-separated second code for ranges, e.g. "7317.00.30" or
// "7317.00 - 7318.00".
var codePattern = regexp.MustCompile(`^[\d.]+(?:\s*-\s*[\d.]+)?$`)

// ValidationError reports a rejected field. It never reaches the network;
// callers surface it next to the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// EntryInput is a manual entry as submitted, before an ID is minted.
type EntryInput struct {
	Code        string `json:"code"`
	Category    string `json:"category"`
	Description string `json:"description"`
	MetalType   string `json:"metalType"`
}

// ValidateEntry checks a submitted entry and returns it trimmed. All text
// fields must be non-empty after trimming and the code must match the
// numeric/dot/dash pattern.
func ValidateEntry(in EntryInput) (EntryInput, error) {
	out := EntryInput{
		Code:        strings.TrimSpace(in.Code),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		MetalType:   strings.TrimSpace(in.MetalType),
	}

	if out.Code == "" {
		return EntryInput{}, &ValidationError{Field: "code", Message: "code is required"}
	}
	if !codePattern.MatchString(out.Code) {
		return EntryInput{}, &ValidationError{Field: "code", Message: "code must contain only digits and periods, optionally as a dash-separated range"}
	}
	if out.Category == "" {
		return EntryInput{}, &ValidationError{Field: "category", Message: "category is required"}
	}
	if out.Description == "" {
		return EntryInput{}, &ValidationError{Field: "description", Message: "description is required"}
	}
	switch out.MetalType {
	case MetalAluminum, MetalSteel, MetalBoth:
	default:
		return EntryInput{}, &ValidationError{Field: "metalType", Message: "metalType must be Aluminum, Steel, or Both"}
	}

	return out, nil
}

// SanitizeCode strips everything but digits and periods from a user-entered
// search code. Applied at the input boundary; the request builder assumes it
// has already run.
func SanitizeCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

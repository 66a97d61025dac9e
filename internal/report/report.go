// Package report shapes provider responses for display and tracks recent
// compliance queries.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/teuglobal/htsgate/internal/composer"
)

// Match is one derivative rule the provider matched the code against.
type Match struct {
	DerivativeCategory string `json:"derivativeCategory"`
	MetalType          string `json:"metalType"`
	MatchDetail        string `json:"matchDetail"`
	SourceSnippet      string `json:"sourceSnippet"`
	Confidence         string `json:"confidence"`
}

// AnalysisResult is the expected compliance response shape. Found=false means
// "not subject" and only Reasoning is displayed.
type AnalysisResult struct {
	Found     bool    `json:"found"`
	Matches   []Match `json:"matches"`
	Reasoning string  `json:"reasoning"`
}

// Report is the displayable shaping of a provider response. Analysis is set
// for compliance mode; Provision carries the opaque payload for the other
// modes.
type Report struct {
	Mode      string          `json:"mode"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
	Provision json.RawMessage `json:"provision,omitempty"`
}

// Present maps a raw provider payload onto a report. Compliance responses are
// decoded into the match-report shape; lookup and headings responses pass
// through untouched. A decode failure here is the downstream parse error the
// gateway deliberately does not catch.
func Present(mode string, raw json.RawMessage) (Report, error) {
	if mode != composer.ModeCompliance {
		return Report{Mode: mode, Provision: raw}, nil
	}

	var result AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return Report{}, fmt.Errorf("decoding compliance response: %w", err)
	}
	if result.Matches == nil {
		result.Matches = []Match{}
	}
	return Report{Mode: mode, Analysis: &result}, nil
}

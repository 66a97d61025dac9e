// Package composer assembles outbound classification requests from the
// stored document context, the manual override entries, and the user-entered
// code. Build is a pure function of its inputs; the HTTP layer owns input
// sanitizing and the provider layer owns the network call.
package composer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teuglobal/htsgate/internal/storage"
)

// Analysis modes.
const (
	ModeCompliance = "compliance"
	ModeLookup     = "lookup"
	ModeHeadings   = "headings"
)

// Part is one element of the ordered content list sent upstream. Exactly one
// of Text or Data is set; Data carries decoded file bytes with its MIME type.
type Part struct {
	Text     string
	Data     []byte
	MimeType string
}

// Request is a fully assembled provider call: a fixed per-mode system
// instruction plus the ordered grounding parts. Never persisted.
type Request struct {
	Mode        string
	Instruction string
	Parts       []Part
}

// ValidMode reports whether mode is one of the supported analysis modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeCompliance, ModeLookup, ModeHeadings:
		return true
	}
	return false
}

// Build assembles a Request. Part order is fixed and load-bearing: the
// provider treats the list as sequential grounding context followed by the
// query, so manual rules come first, then the document, then the code text.
// Entries are only ever included in compliance mode. The code must be
// non-blank for compliance and lookup; headings works from the document
// alone.
func Build(mode string, ctx *storage.DocumentContext, entries []storage.ManualEntry, code string) (Request, error) {
	if !ValidMode(mode) {
		return Request{}, fmt.Errorf("unknown mode %q", mode)
	}

	code = strings.TrimSpace(code)
	if code == "" && mode != ModeHeadings {
		return Request{}, fmt.Errorf("%s mode requires a code", mode)
	}

	req := Request{Mode: mode, Instruction: instructionFor(mode)}

	if mode == ModeCompliance && len(entries) > 0 {
		block, err := rulesBlock(entries)
		if err != nil {
			return Request{}, err
		}
		req.Parts = append(req.Parts, Part{Text: block})
	}

	if ctx != nil {
		part, err := contextPart(*ctx)
		if err != nil {
			return Request{}, err
		}
		req.Parts = append(req.Parts, part)
	}

	req.Parts = append(req.Parts, Part{Text: queryText(mode, code)})

	return req, nil
}

// rulesBlock renders the override entries as a JSON block the model can
// quote snippets from.
func rulesBlock(entries []storage.ManualEntry) (string, error) {
	type rule struct {
		Code        string `json:"code"`
		Category    string `json:"category"`
		Description string `json:"description"`
		MetalType   string `json:"metalType"`
	}
	rules := make([]rule, len(entries))
	for i, e := range entries {
		rules[i] = rule{Code: e.Code, Category: e.Category, Description: e.Description, MetalType: e.MetalType}
	}
	b, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("marshalling manual rules: %w", err)
	}
	return "MANUAL RULES:\n" + string(b) + "\n", nil
}

func contextPart(ctx storage.DocumentContext) (Part, error) {
	if ctx.Kind == storage.ContextKindFile && ctx.MimeType != "" {
		data, err := base64.StdEncoding.DecodeString(ctx.Content)
		if err != nil {
			return Part{}, fmt.Errorf("decoding document content: %w", err)
		}
		return Part{Data: data, MimeType: ctx.MimeType}, nil
	}
	return Part{Text: "DOCUMENT:\n" + ctx.Content + "\n"}, nil
}

func queryText(mode, code string) string {
	switch mode {
	case ModeLookup:
		return "Lookup HTS: " + code
	case ModeHeadings:
		return "Extract HTS 4-digit headings."
	default:
		return "Analyze HTS: " + code
	}
}

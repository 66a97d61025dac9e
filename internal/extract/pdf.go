// Package extract pulls plain text out of uploaded reference documents so
// text-mode consumers can use them without re-sending binary payloads.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFMimeType is the only binary document type the store extracts text from.
const PDFMimeType = "application/pdf"

// PDFText returns the plain text of a PDF document. The parser panics on
// some malformed files, so the call is isolated behind a recover.
func PDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("collecting pdf text: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

package provider

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
)

// Document is one uploaded file handed to the cascade, with its detected
// coarse format and, for text-like content, the decoded text.
type Document struct {
	Name   string
	MIME   string
	Bytes  []byte
	Format constants.DocFormat
	Text   string
}

// Context is untrusted caller metadata used only to bias provider prompts.
// It is never required for correctness.
type Context struct {
	Scope            string `json:"scope,omitempty"`
	DocType          string `json:"doc_type,omitempty"`
	ProposalCategory string `json:"proposal_category,omitempty"`
	BeneficiaryID    string `json:"beneficiary_id,omitempty"`
	BeneficiaryName  string `json:"beneficiary_name,omitempty"`
	BeneficiaryRole  string `json:"beneficiary_role,omitempty"`
	PartnerID        string `json:"partner_id,omitempty"`
}

// DocumentExtractor is the contract every cascade stage implements.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, doc Document, ectx Context) (extraction.Fields, error)
}

// DetectFormat branches on extension/mime (and the %PDF magic) into the
// coarse formats the cascade routes on. Empty string means unrecognized.
func DetectFormat(name, mime string, data []byte) constants.DocFormat {
	ext := constants.NormalizeExt(filepath.Ext(name))

	switch {
	case ext == "pdf", mime == "application/pdf", len(data) >= 4 && string(data[:4]) == "%PDF":
		return constants.FormatPDF
	case constants.IsImageExt(ext), strings.HasPrefix(mime, "image/"):
		return constants.FormatImage
	case ext == "docx":
		return constants.FormatDocx
	case constants.IsTextExt(ext),
		strings.HasPrefix(mime, "text/"),
		strings.Contains(mime, "json"),
		strings.Contains(mime, "xml"):
		return constants.FormatText
	}
	return ""
}

// DecodeText decodes text-like bytes, preferring UTF-8 and falling back to
// Latin-1. Returns "" for content that decodes to nothing.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimSpace(string(data))
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return strings.TrimSpace(string(runes))
}

// MinTextLength is the threshold under which text-like content is not worth
// a dedicated text extraction pass.
const MinTextLength = 20

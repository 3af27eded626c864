package provider

import (
	"strings"
	"testing"

	"github.com/hks-corretora/proposal-intake/constants"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mime     string
		data     []byte
		want     constants.DocFormat
	}{
		{"pdf extension", "contrato.pdf", "", nil, constants.FormatPDF},
		{"pdf mime", "upload.bin", "application/pdf", nil, constants.FormatPDF},
		{"pdf magic bytes", "upload.bin", "", []byte("%PDF-1.7 rest"), constants.FormatPDF},
		{"jpeg extension", "rg.JPG", "", nil, constants.FormatImage},
		{"png mime", "upload.bin", "image/png", nil, constants.FormatImage},
		{"docx extension", "relacao.docx", "", nil, constants.FormatDocx},
		{"txt extension", "notas.txt", "", nil, constants.FormatText},
		{"json mime", "payload", "application/json", nil, constants.FormatText},
		{"text mime", "body", "text/plain; charset=utf-8", nil, constants.FormatText},
		{"unknown", "mystery.xyz", "application/octet-stream", []byte{0x00, 0x01}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.fileName, tt.mime, tt.data); got != tt.want {
				t.Errorf("DetectFormat(%q, %q) = %q, want %q", tt.fileName, tt.mime, got, tt.want)
			}
		})
	}
}

func TestDecodeText(t *testing.T) {
	if got := DecodeText([]byte("texto simples")); got != "texto simples" {
		t.Errorf("DecodeText = %q", got)
	}
	// Latin-1 bytes must not be dropped.
	latin1 := []byte{'S', 0xE3, 'o'} // "São" in ISO-8859-1
	if got := DecodeText(latin1); !strings.Contains(got, "ã") {
		t.Errorf("DecodeText(latin1) = %q, want decoded accent", got)
	}
}

func TestUserPromptCarriesContext(t *testing.T) {
	ectx := Context{
		Scope:           "beneficiario",
		DocType:         "certidao_casamento",
		BeneficiaryName: "Maria Silva",
	}
	prompt := UserPrompt(ectx, "certidao.pdf")
	for _, want := range []string{"certidao.pdf", "certidao_casamento", "Maria Silva"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("UserPrompt missing %q", want)
		}
	}
}

func TestClipText(t *testing.T) {
	long := strings.Repeat("a", 100)
	if got := ClipText(long, 10); len(got) != 10 {
		t.Errorf("ClipText returned %d chars, want 10", len(got))
	}
	if got := ClipText("curto", 10); got != "curto" {
		t.Errorf("ClipText(%q) = %q, want unchanged", "curto", got)
	}
}

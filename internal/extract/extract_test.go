package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestTextMarkdownPassthrough(t *testing.T) {
	src := "## User Prompt: Review\nCheck the diff.\n"
	got, err := Text([]byte(src), "text/markdown", "prompts.md")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != src {
		t.Fatalf("markdown changed in passthrough: %q", got)
	}
}

func TestTextExtensionBreaksOctetStreamTie(t *testing.T) {
	got, err := Text([]byte("plain content"), "application/octet-stream", "notes.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "plain content" {
		t.Fatalf("got %q", got)
	}
}

func TestTextRejectsInvalidUTF8(t *testing.T) {
	if _, err := Text([]byte{0xff, 0xfe, 0x00}, "text/plain", "bad.txt"); err == nil {
		t.Fatal("expected invalid UTF-8 error")
	}
}

func TestTextDOCXFlattensParagraphs(t *testing.T) {
	doc := buildDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>## System Prompt: Helper</w:t></w:r></w:p>
    <w:p><w:r><w:t>Answer briefly.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := Text(doc, "application/zip", "prompts.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(got, "## System Prompt: Helper\n") {
		t.Fatalf("paragraph break lost: %q", got)
	}
	if !strings.Contains(got, "Answer briefly.") {
		t.Fatalf("text lost: %q", got)
	}
}

func TestTextPlainZipUnsupported(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = Text(buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if !strings.Contains(err.Error(), "application/zip") {
		t.Fatalf("error should name the type: %v", err)
	}
}

func TestTextUnsupportedType(t *testing.T) {
	_, err := Text([]byte("%!"), "image/png", "shot.png")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestTextCorruptPDF(t *testing.T) {
	if _, err := Text([]byte("not a pdf"), "application/pdf", "broken.pdf"); err == nil {
		t.Fatal("expected pdf parse error")
	}
}

package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeMarkdown = "text/markdown"
	mimePlain    = "text/plain"
)

// ErrUnsupported marks a media type no extractor handles.
var ErrUnsupported = errors.New("unsupported media type")

// Text extracts UTF-8 text from an uploaded file. Markdown and plain text
// pass through unchanged; PDF text comes from ledongthuc/pdf; DOCX is
// unzipped and its document XML flattened to character data.
func Text(data []byte, mimeType, fileName string) (string, error) {
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimeMarkdown, mimePlain:
		if !utf8.Valid(data) {
			return "", errors.New("text file is not valid UTF-8")
		}
		return string(data), nil
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, normalized)
	}
}

// normalizeMimeType resolves what browsers and sniffers actually send into
// one of the extractor types. OOXML files often arrive as application/zip,
// and Markdown as octet-stream or a vendor type; the extension breaks ties.
func normalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "text/x-markdown":
		return mimeMarkdown
	case "application/zip":
		if isDOCXArchive(data) {
			return mimeDOCX
		}
	case "", "application/octet-stream":
	default:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".md", ".markdown":
		return mimeMarkdown
	case ".txt":
		return mimePlain
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	}
	return clean
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	doc, err := zr.Open("word/document.xml")
	if err != nil {
		return "", errors.New("document.xml not found in archive")
	}
	defer doc.Close()

	raw, err := io.ReadAll(doc)
	if err != nil {
		return "", err
	}
	return flattenDocxXML(raw), nil
}

// flattenDocxXML keeps the character data and turns paragraph and line-break
// ends into newlines. Malformed XML past some point truncates rather than
// failing; whatever text was already collected is returned.
func flattenDocxXML(raw []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func isDOCXArchive(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}

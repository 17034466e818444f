// Package extract pulls plain text out of uploaded resumes.
package extract

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var extensions = map[string]string{
	MimePDF:  ".pdf",
	MimeDOCX: ".docx",
	MimeText: ".txt",
}

// DetectMIME sniffs the content type of an upload and normalises it to one of
// the supported types when possible. Unsupported content returns its sniffed
// type unchanged.
func DetectMIME(data []byte) string {
	m := mimetype.Detect(data)
	for _, supported := range []string{MimePDF, MimeDOCX, MimeText} {
		if m.Is(supported) {
			return supported
		}
	}
	return m.String()
}

func Supported(mime string) bool {
	_, ok := extensions[mime]
	return ok
}

// Extension returns the file extension stored alongside an upload of this type.
func Extension(mime string) string {
	return extensions[mime]
}

// MimeFromName maps a file name to a supported type by extension, for local
// files whose content sniffing is ambiguous.
func MimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".txt":
		return MimeText
	default:
		return ""
	}
}

// Text extracts plain text from an upload. Types other than PDF, DOCX and
// plain text fail with generation.ErrUnsupportedDocument.
func Text(mime string, data []byte) (string, error) {
	switch mime {
	case MimeText:
		return string(data), nil

	case MimePDF:
		return extractPDFText(bytes.NewReader(data))

	case MimeDOCX:
		return extractDocxText(bytes.NewReader(data))

	default:
		return "", fmt.Errorf("%w: %s", generation.ErrUnsupportedDocument, mime)
	}
}

func extractPDFText(reader *bytes.Reader) (string, error) {
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}

func extractDocxText(reader io.Reader) (string, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", err
	}
	r := bytes.NewReader(buf.Bytes())

	doc, err := docx.ReadDocxFromMemory(r, int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxMarkup(doc.Editable().GetContent()), nil
}

// stripDocxMarkup turns the raw document.xml content into text: paragraph
// ends become newlines and every other tag is dropped.
func stripDocxMarkup(xml string) string {
	xml = strings.ReplaceAll(xml, "</w:p>", "\n")
	var b strings.Builder
	inTag := false
	for _, r := range xml {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(html.UnescapeString(b.String()))
}

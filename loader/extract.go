package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"voicerag/types"
)

// Extractor turns an uploaded document into one text string.
type Extractor struct {
	crop PDFCrop
}

func NewExtractor(crop PDFCrop) *Extractor {
	return &Extractor{crop: crop}
}

// ExtractFile reads path and extracts it as typ.
func (e *Extractor) ExtractFile(path string, typ types.DocType) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", types.ErrExtraction, path, err)
	}
	return e.Extract(types.Document{Content: content, Type: typ, Source: path})
}

func (e *Extractor) Extract(doc types.Document) (string, error) {
	switch doc.Type {
	case types.DocPDF:
		return e.extractPDF(doc.Content)
	case types.DocDOCX:
		return extractDOCX(doc.Content)
	case types.DocTXT:
		return extractTXT(doc.Content)
	}
	return "", fmt.Errorf("%w: %q", types.ErrUnsupportedType, doc.Type)
}

func extractTXT(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", types.ErrEncoding
	}
	return string(content), nil
}

func (e *Extractor) extractPDF(content []byte) (text string, err error) {
	// ledongthuc/pdf panics on some broken content streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", types.ErrExtraction, r)
		}
	}()

	if err := validatePDF(content); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrExtraction, err)
	}
	if e.crop.Enabled() {
		cropped, err := e.crop.Apply(content)
		if err != nil {
			return "", fmt.Errorf("%w: %w", types.ErrExtraction, err)
		}
		content = cropped
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", types.ErrExtraction, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(make(map[string]*pdf.Font))
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return joinNonEmpty(pages), nil
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// docxParagraphs returns the text of every top-level w:p in document order.
// Runs count at any depth (hyperlinks, insertions, smart tags); w:tab becomes
// a tab and w:br/w:cr a newline. Paragraph and run properties are skipped.
func docxParagraphs(raw []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var (
		paragraphs []string
		sb         strings.Builder
		depth      int
		props      int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return paragraphs, nil
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != wordNamespace {
				continue
			}
			inRun := depth > 0 && props == 0
			switch el.Name.Local {
			case "p":
				if depth == 0 {
					sb.Reset()
				}
				depth++
			case "pPr", "rPr":
				props++
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					sb.WriteByte('\t')
				}
			case "br":
				if inRun && breakType(el) == "" {
					sb.WriteByte('\n')
				}
			case "cr":
				if inRun {
					sb.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if el.Name.Space != wordNamespace {
				continue
			}
			switch el.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, sb.String())
				}
			case "pPr", "rPr":
				props--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
}

// breakType is the w:type of a w:br; page and column breaks carry no text.
func breakType(el xml.StartElement) string {
	for _, a := range el.Attr {
		if a.Name.Local == "type" && a.Value != "textWrapping" {
			return a.Value
		}
	}
	return ""
}

func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %w", types.ErrExtraction, err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %w", types.ErrExtraction, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %w", types.ErrExtraction, err)
		}

		paragraphs, err := docxParagraphs(raw)
		if err != nil {
			return "", fmt.Errorf("%w: parse document.xml: %w", types.ErrExtraction, err)
		}
		return joinNonEmpty(paragraphs), nil
	}
	return "", fmt.Errorf("%w: word/document.xml not found", types.ErrExtraction)
}

package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"mostashar/internal/models"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ExtractedText is raw document text plus the page number each paragraph run
// came from, when the source format has real pages (PDF). Formats without
// pagination leave PageBreaks empty and the chunker falls back to its
// synthetic page counter.
type ExtractedText struct {
	Text string
	// PageBreaks holds the byte offset in Text where each page after the
	// first begins.
	PageBreaks []int
}

// Extractor converts an uploaded binary file into raw text. No chunking or
// language logic lives here.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(data []byte, mimeType string) (*ExtractedText, error) {
	switch mimeType {
	case "application/pdf":
		return e.extractPDF(data)
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return e.extractDOCX(data)
	case "text/plain", "text/markdown":
		return &ExtractedText{Text: sanitizeUTF8(string(data))}, nil
	default:
		return nil, &models.ExtractionError{MimeType: mimeType, Err: models.ErrUnsupportedFormat}
	}
}

func (e *Extractor) extractPDF(data []byte) (*ExtractedText, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &models.ExtractionError{MimeType: "application/pdf", Err: err}
	}
	defer doc.Close()

	var builder strings.Builder
	var pageBreaks []int

	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}

		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		if builder.Len() > 0 {
			builder.WriteString("\n\n")
			pageBreaks = append(pageBreaks, builder.Len())
		}
		builder.WriteString(sanitizeUTF8(pageText))
	}

	text := builder.String()
	if text == "" {
		return nil, &models.ExtractionError{MimeType: "application/pdf", Err: fmt.Errorf("no text found in PDF")}
	}

	e.logger.Info("PDF text extracted",
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)

	return &ExtractedText{Text: text, PageBreaks: pageBreaks}, nil
}

func (e *Extractor) extractDOCX(data []byte) (*ExtractedText, error) {
	const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &models.ExtractionError{MimeType: docxMime, Err: err}
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, &models.ExtractionError{MimeType: docxMime, Err: err}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &models.ExtractionError{MimeType: docxMime, Err: err}
		}

		text := parseDocumentXML(content)
		if text == "" {
			return nil, &models.ExtractionError{MimeType: docxMime, Err: fmt.Errorf("no text found in document")}
		}
		return &ExtractedText{Text: sanitizeUTF8(text)}, nil
	}

	return nil, &models.ExtractionError{MimeType: docxMime, Err: fmt.Errorf("word/document.xml missing")}
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []string `xml:"t"`
	} `xml:"r"`
}

func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var builder strings.Builder
	for _, p := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				line.WriteString(t)
			}
		}
		if line.Len() == 0 {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(line.String())
	}

	return builder.String()
}

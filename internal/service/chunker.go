package service

import (
	"regexp"
	"strings"

	"mostashar/internal/models"
)

// TextChunk is a chunker output before persistence: ordered, typed, with page
// and section metadata but no embedding yet.
type TextChunk struct {
	Index        int
	Text         string
	Type         models.ChunkType
	PageNumber   int
	SectionTitle string
}

// Chunker segments raw text into ordered, typed chunks. Splitting happens on
// blank-line boundaries; paragraphs above maxChunkSize are flushed on sentence
// boundaries so no chunk ever cuts a sentence in half.
type Chunker struct {
	maxChunkSize int
}

const (
	defaultMaxChunkSize = 500
	maxTitleLength      = 100
	// Without real pagination a synthetic page counter advances every
	// chunksPerPage chunks.
	chunksPerPage = 10
)

func NewChunker() *Chunker {
	return &Chunker{maxChunkSize: defaultMaxChunkSize}
}

var (
	paragraphSeparator = regexp.MustCompile(`\r?\n[ \t]*(\r?\n)+`)
	sentencePattern    = regexp.MustCompile(`[^.!?؟]+[.!?؟]+["')\]]*\s*`)
)

const sentenceTerminators = ".!?؟"

// Split produces the ordered chunk list for a document. Empty input produces
// zero chunks; there is no other failure mode.
func (c *Chunker) Split(extracted *ExtractedText, language models.Language) []TextChunk {
	if extracted == nil || strings.TrimSpace(extracted.Text) == "" {
		return nil
	}

	text := extracted.Text
	separators := paragraphSeparator.FindAllStringIndex(text, -1)

	var chunks []TextChunk
	sectionTitle := ""
	start := 0

	emit := func(chunkText string, chunkType models.ChunkType, offset int) {
		chunks = append(chunks, TextChunk{
			Index:        len(chunks),
			Text:         chunkText,
			Type:         chunkType,
			PageNumber:   pageNumber(extracted.PageBreaks, offset, len(chunks)),
			SectionTitle: sectionTitle,
		})
	}

	paragraphs := make([]struct {
		raw    string
		offset int
	}, 0, len(separators)+1)
	for _, sep := range separators {
		paragraphs = append(paragraphs, struct {
			raw    string
			offset int
		}{text[start:sep[0]], start})
		start = sep[1]
	}
	paragraphs = append(paragraphs, struct {
		raw    string
		offset int
	}{text[start:], start})

	for _, p := range paragraphs {
		trimmed := strings.TrimSpace(p.raw)
		if trimmed == "" {
			continue
		}

		if isTitle(p.raw, trimmed) {
			sectionTitle = trimmed
			emit(trimmed, models.ChunkTypeTitle, p.offset)
			continue
		}

		if len([]rune(trimmed)) <= c.maxChunkSize {
			emit(trimmed, models.ChunkTypeParagraph, p.offset)
			continue
		}

		for _, part := range c.splitLongParagraph(trimmed) {
			emit(part, models.ChunkTypeParagraph, p.offset)
		}
	}

	return chunks
}

// isTitle classifies a paragraph as a title: short, free of sentence-ending
// punctuation, and already in trimmed form.
func isTitle(raw, trimmed string) bool {
	if len([]rune(trimmed)) >= maxTitleLength {
		return false
	}
	if strings.ContainsAny(trimmed, sentenceTerminators) {
		return false
	}
	return raw == trimmed
}

// splitLongParagraph accumulates sentences until adding the next one would
// exceed the chunk size, then flushes. A single oversized sentence is emitted
// as its own chunk rather than truncated.
func (c *Chunker) splitLongParagraph(paragraph string) []string {
	sentences := sentencePattern.FindAllString(paragraph, -1)
	matched := 0
	for _, s := range sentences {
		matched += len(s)
	}
	if rest := strings.TrimSpace(paragraph[matched:]); rest != "" {
		sentences = append(sentences, rest)
	}
	if len(sentences) == 0 {
		return []string{paragraph}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		sentenceLen := len([]rune(sentence))
		if currentLen > 0 && currentLen+1+sentenceLen > c.maxChunkSize {
			parts = append(parts, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}
	if currentLen > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// pageNumber prefers real page boundaries recorded by the extractor and falls
// back to the synthetic every-N-chunks counter.
func pageNumber(pageBreaks []int, offset, chunkIndex int) int {
	if len(pageBreaks) == 0 {
		return chunkIndex/chunksPerPage + 1
	}
	page := 1
	for _, breakOffset := range pageBreaks {
		if offset >= breakOffset {
			page++
		}
	}
	return page
}

package service

import (
	"strings"
	"testing"

	"mostashar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	chunker := NewChunker()

	assert.Nil(t, chunker.Split(nil, models.LanguageEnglish))
	assert.Nil(t, chunker.Split(&ExtractedText{Text: ""}, models.LanguageEnglish))
	assert.Nil(t, chunker.Split(&ExtractedText{Text: "  \n\n  \t"}, models.LanguageEnglish))
}

func TestSplit_SingleParagraph(t *testing.T) {
	chunker := NewChunker()

	chunks := chunker.Split(&ExtractedText{Text: "Employees accrue annual leave monthly."}, models.LanguageEnglish)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "Employees accrue annual leave monthly.", chunks[0].Text)
	assert.Equal(t, models.ChunkTypeParagraph, chunks[0].Type)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Empty(t, chunks[0].SectionTitle)
}

func TestSplit_ContiguousIndices(t *testing.T) {
	chunker := NewChunker()

	text := "Leave Policy\n\nFirst paragraph of the policy.\n\nSecond paragraph of the policy.\n\nThird paragraph of the policy."
	chunks := chunker.Split(&ExtractedText{Text: text}, models.LanguageEnglish)
	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestSplit_TitleDetection(t *testing.T) {
	chunker := NewChunker()

	text := "Annual Leave\n\nEmployees are entitled to annual leave.\n\nSick Leave\n\nSick leave requires a medical certificate."
	chunks := chunker.Split(&ExtractedText{Text: text}, models.LanguageEnglish)
	require.Len(t, chunks, 4)

	assert.Equal(t, models.ChunkTypeTitle, chunks[0].Type)
	assert.Equal(t, "Annual Leave", chunks[0].Text)

	assert.Equal(t, models.ChunkTypeParagraph, chunks[1].Type)
	assert.Equal(t, "Annual Leave", chunks[1].SectionTitle)

	assert.Equal(t, models.ChunkTypeTitle, chunks[2].Type)
	assert.Equal(t, "Sick Leave", chunks[3].SectionTitle)
}

func TestSplit_WindowsLineEndings(t *testing.T) {
	chunker := NewChunker()

	// Files produced on Windows separate paragraphs with \r\n\r\n; the split
	// must see the same four chunks a Unix file would give.
	text := "Annual Leave\r\n\r\nEmployees are entitled to annual leave.\r\n\r\nSick Leave\r\n\r\nSick leave requires a medical certificate."
	chunks := chunker.Split(&ExtractedText{Text: text}, models.LanguageEnglish)
	require.Len(t, chunks, 4)

	assert.Equal(t, models.ChunkTypeTitle, chunks[0].Type)
	assert.Equal(t, "Annual Leave", chunks[0].Text)
	assert.Equal(t, "Annual Leave", chunks[1].SectionTitle)
	assert.Equal(t, models.ChunkTypeTitle, chunks[2].Type)
	assert.Equal(t, "Sick Leave", chunks[3].SectionTitle)
}

func TestSplit_TitleRequiresNoTerminator(t *testing.T) {
	chunker := NewChunker()

	// Short, but ends with a sentence terminator: a paragraph, not a title.
	chunks := chunker.Split(&ExtractedText{Text: "This is short.\n\nFollow-up paragraph here."}, models.LanguageEnglish)
	require.Len(t, chunks, 2)
	assert.Equal(t, models.ChunkTypeParagraph, chunks[0].Type)
	assert.Empty(t, chunks[0].SectionTitle)
}

func TestSplit_TitleRequiresShortLine(t *testing.T) {
	chunker := NewChunker()

	long := strings.Repeat("word ", 25) + "ending without terminator"
	require.GreaterOrEqual(t, len([]rune(long)), maxTitleLength)

	chunks := chunker.Split(&ExtractedText{Text: long}, models.LanguageEnglish)
	require.Len(t, chunks, 1)
	assert.Equal(t, models.ChunkTypeParagraph, chunks[0].Type)
}

func TestSplit_LongParagraphFlushesOnSentences(t *testing.T) {
	chunker := NewChunker()

	sentence := strings.Repeat("annual leave accrues ", 5) + "per month."
	paragraph := strings.TrimSpace(strings.Repeat(sentence+" ", 8))
	require.Greater(t, len([]rune(paragraph)), defaultMaxChunkSize)

	chunks := chunker.Split(&ExtractedText{Text: paragraph}, models.LanguageEnglish)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), defaultMaxChunkSize)
		assert.Equal(t, models.ChunkTypeParagraph, c.Type)
		// No sentence is cut mid-way: every chunk ends on a terminator.
		assert.True(t, strings.HasSuffix(c.Text, "."), "chunk should end on a sentence boundary: %q", c.Text)
	}
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	chunker := NewChunker()

	sentence := strings.Repeat("clause and ", 60) + "done."
	require.Greater(t, len([]rune(sentence)), defaultMaxChunkSize)

	chunks := chunker.Split(&ExtractedText{Text: sentence}, models.LanguageEnglish)
	require.Len(t, chunks, 1)
	assert.Equal(t, sentence, chunks[0].Text)
}

func TestSplit_ArabicSentenceBoundaries(t *testing.T) {
	chunker := NewChunker()

	base := "يستحق العامل إجازة سنوية مدفوعة الأجر لا تقل عن واحد وعشرين يوما تزاد إلى مدة لا تقل عن ثلاثين يوما؟ "
	paragraph := strings.TrimSpace(strings.Repeat(base, 8))
	require.Greater(t, len([]rune(paragraph)), defaultMaxChunkSize)

	chunks := chunker.Split(&ExtractedText{Text: paragraph}, models.LanguageArabic)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), defaultMaxChunkSize)
		assert.True(t, strings.HasSuffix(c.Text, "؟"))
	}
}

func TestSplit_SyntheticPages(t *testing.T) {
	chunker := NewChunker()

	var parts []string
	for i := 0; i < 25; i++ {
		parts = append(parts, "Paragraph with some policy content in it.")
	}
	text := strings.Join(parts, "\n\n")

	chunks := chunker.Split(&ExtractedText{Text: text}, models.LanguageEnglish)
	require.Len(t, chunks, 25)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 1, chunks[9].PageNumber)
	assert.Equal(t, 2, chunks[10].PageNumber)
	assert.Equal(t, 3, chunks[24].PageNumber)
}

func TestSplit_RealPageBreaks(t *testing.T) {
	chunker := NewChunker()

	first := "Text on the first page of the file."
	second := "Text on the second page of the file."
	text := first + "\n\n" + second
	breaks := []int{len(first) + 2}

	chunks := chunker.Split(&ExtractedText{Text: text, PageBreaks: breaks}, models.LanguageEnglish)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 2, chunks[1].PageNumber)
}

func TestSplit_Deterministic(t *testing.T) {
	chunker := NewChunker()

	text := "Overtime\n\nOvertime pay is calculated at 150 percent of the hourly wage.\n\n" +
		strings.TrimSpace(strings.Repeat("The employer keeps a record of every overtime hour worked. ", 12))

	first := chunker.Split(&ExtractedText{Text: text}, models.LanguageEnglish)
	second := chunker.Split(&ExtractedText{Text: text}, models.LanguageEnglish)
	assert.Equal(t, first, second)
}

package service

import (
	"fmt"
	"strings"

	"mostashar/internal/models"
)

// PromptBuilder assembles retrieved evidence, organization context and the
// user's question into a single structured prompt. The Arabic and English
// templates mirror each other section for section.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

type PromptInput struct {
	Query             string
	OrganizationName  string
	Language          models.Language
	DocumentResults   []models.SearchResult
	RegulatoryResults []models.SearchResult
}

const systemRoleEn = `You are an expert assistant for HR policy and labor-law questions. Answer strictly from the evidence provided below. Do not invent facts, policies or article numbers. If the evidence is not sufficient to answer the question, state explicitly that you do not have enough information to answer.`

const systemRoleAr = `أنت مساعد خبير في سياسات الموارد البشرية وأنظمة العمل. أجب فقط بالاستناد إلى الأدلة المقدمة أدناه. لا تخترع حقائق أو سياسات أو أرقام مواد. إذا كانت الأدلة غير كافية للإجابة على السؤال، صرّح بوضوح بأنه لا تتوفر لديك معلومات كافية للإجابة.`

// Build produces the prompt text. Section order is fixed: system role,
// organizational context, document excerpts, regulatory excerpts, question,
// answer-language tag.
func (b *PromptBuilder) Build(in PromptInput) string {
	var builder strings.Builder

	if in.Language == models.LanguageArabic {
		b.buildArabic(&builder, in)
	} else {
		b.buildEnglish(&builder, in)
	}

	return builder.String()
}

func (b *PromptBuilder) buildEnglish(builder *strings.Builder, in PromptInput) {
	builder.WriteString(systemRoleEn)
	builder.WriteString("\n\n")

	fmt.Fprintf(builder, "Organizational Context: you are answering on behalf of the organization %q.\n\n", in.OrganizationName)

	builder.WriteString("Organization documents:\n")
	if len(in.DocumentResults) == 0 {
		builder.WriteString("(no organization documents matched this question)\n")
	}
	for i, r := range in.DocumentResults {
		fmt.Fprintf(builder, "%d. [%s] %s\n", i+1, r.Title, r.Text)
	}
	builder.WriteString("\n")

	builder.WriteString("Labor-law articles:\n")
	if len(in.RegulatoryResults) == 0 {
		builder.WriteString("(no labor-law articles matched this question)\n")
	}
	for i, r := range in.RegulatoryResults {
		fmt.Fprintf(builder, "%d. Article %s — %s: %s\n", i+1, r.ArticleNumber, r.Title, r.Text)
	}
	builder.WriteString("\n")

	fmt.Fprintf(builder, "Question: %s\n\n", in.Query)
	builder.WriteString("Answer in English.")
}

func (b *PromptBuilder) buildArabic(builder *strings.Builder, in PromptInput) {
	builder.WriteString(systemRoleAr)
	builder.WriteString("\n\n")

	fmt.Fprintf(builder, "السياق المؤسسي: أنت تجيب نيابة عن منظمة %q.\n\n", in.OrganizationName)

	builder.WriteString("وثائق المنظمة:\n")
	if len(in.DocumentResults) == 0 {
		builder.WriteString("(لا توجد وثائق مطابقة لهذا السؤال)\n")
	}
	for i, r := range in.DocumentResults {
		fmt.Fprintf(builder, "%d. [%s] %s\n", i+1, r.Title, r.Text)
	}
	builder.WriteString("\n")

	builder.WriteString("مواد نظام العمل:\n")
	if len(in.RegulatoryResults) == 0 {
		builder.WriteString("(لا توجد مواد مطابقة لهذا السؤال)\n")
	}
	for i, r := range in.RegulatoryResults {
		fmt.Fprintf(builder, "%d. المادة %s — %s: %s\n", i+1, r.ArticleNumber, r.Title, r.Text)
	}
	builder.WriteString("\n")

	fmt.Fprintf(builder, "السؤال: %s\n\n", in.Query)
	builder.WriteString("أجب باللغة العربية.")
}

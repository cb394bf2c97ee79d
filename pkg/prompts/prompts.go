// Package prompts は、解析・画像生成の各コラボレーターに渡す指示文を組み立てます。
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed analysis.md
var analysisTemplate string

// NegativeIllustrationPrompt は挿絵生成時に排除したい要素の標準セットです。
// 文字の混入と低品質な描写を徹底的に避けるのだ。
const NegativeIllustrationPrompt = "text, alphabet, letters, words, watermark, signatures, username, low quality, distorted, bad anatomy, extra limbs, blurry"

// TemplateData は解析プロンプトのテンプレートに流し込む値なのだ。
type TemplateData struct {
	SourceText    string
	VocabCriteria string
	HasImage      bool
}

// AnalysisPromptBuilder は学習バンドル解析用のプロンプトを構築します。
type AnalysisPromptBuilder struct {
	tmpl *template.Template
}

// NewAnalysisPromptBuilder は埋め込みテンプレートをパースしてビルダーを生成します。
func NewAnalysisPromptBuilder() (*AnalysisPromptBuilder, error) {
	tmpl, err := template.New("analysis").Parse(analysisTemplate)
	if err != nil {
		return nil, fmt.Errorf("解析プロンプトテンプレートのパースに失敗しました: %w", err)
	}
	return &AnalysisPromptBuilder{tmpl: tmpl}, nil
}

// Build はテンプレートに入力テキストと語彙選定基準を埋め込んだ最終プロンプトを返すのだ。
func (b *AnalysisPromptBuilder) Build(data TemplateData) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("解析プロンプトの構築に失敗しました: %w", err)
	}
	return sb.String(), nil
}

// DefaultVocabPrompt は語彙項目に画像プロンプトが無い場合の既定プロンプトを返します。
func DefaultVocabPrompt(word string) string {
	return fmt.Sprintf("Illustration of %s", word)
}

// JoinStyle はベースプロンプトに共通の画風サフィックスを結合します。
// サフィックスが空ならベースをそのまま返すのだ。
func JoinStyle(prompt, styleSuffix string) string {
	prompt = strings.TrimSpace(prompt)
	styleSuffix = strings.TrimSpace(styleSuffix)
	if styleSuffix == "" {
		return prompt
	}
	if prompt == "" {
		return styleSuffix
	}
	return prompt + ", " + styleSuffix
}

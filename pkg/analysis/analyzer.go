// Package analysis は、教材テキストや撮影された教科書ページを
// 構造化された学習バンドル（Document）へ変換する解析コラボレーターを提供します。
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-lesson-kit/pkg/domain"
	"github.com/shouni/go-lesson-kit/pkg/prompts"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// Request は解析コラボレーターへの入力です。
// SourceText と ImageData の少なくとも一方が必要です（境界チェックは呼び出し側の責務）。
type Request struct {
	SourceText    string
	ImageData     []byte
	ImageMime     string
	VocabCriteria string
}

// HasImage は撮影ページ入力が含まれるかを返します。
func (r Request) HasImage() bool {
	return len(r.ImageData) > 0
}

// Analyzer は生の入力を学習バンドルの骨格に変換するインターフェースです。
// ネットワーク障害・不正なレスポンス・スキーマ不一致はすべて不透明なエラーとして返り、
// パイプラインにとって致命的な失敗になります。
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*domain.Document, error)
}

// GeminiAnalyzer は Gemini を使う Analyzer の実装なのだ。
// テキストのみの入力は go-gemini-client 経由、画像つき入力は genai SDK の
// マルチモーダル API 経由で同じプロンプトを投げるのだよ。
type GeminiAnalyzer struct {
	aiClient      gemini.GenerativeModel
	visionClient  *genai.Client
	promptBuilder *prompts.AnalysisPromptBuilder
	model         string
}

// NewGeminiAnalyzer は GeminiAnalyzer を初期化します。
// visionClient は画像入力を使わない構成では nil でも構いません。
func NewGeminiAnalyzer(aiClient gemini.GenerativeModel, visionClient *genai.Client, model string) (*GeminiAnalyzer, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient は必須です")
	}
	pb, err := prompts.NewAnalysisPromptBuilder()
	if err != nil {
		return nil, err
	}
	return &GeminiAnalyzer{
		aiClient:      aiClient,
		visionClient:  visionClient,
		promptBuilder: pb,
		model:         model,
	}, nil
}

// Analyze はプロンプトを構築して Gemini を呼び出し、応答を Document に変換するのだ。
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (*domain.Document, error) {
	prompt, err := a.promptBuilder.Build(prompts.TemplateData{
		SourceText:    strings.TrimSpace(req.SourceText),
		VocabCriteria: strings.TrimSpace(req.VocabCriteria),
		HasImage:      req.HasImage(),
	})
	if err != nil {
		return nil, err
	}

	var raw string
	if req.HasImage() {
		raw, err = a.generateWithImage(ctx, prompt, req.ImageData, req.ImageMime)
	} else {
		raw, err = a.generateText(ctx, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("教材の解析に失敗しました: %w", err)
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "解析が完了したのだ",
		"panels", len(doc.ComicPanels),
		"vocabulary", len(doc.Vocabulary),
		"nodes", len(doc.Graph.Nodes),
		"links", len(doc.Graph.Links))
	return doc, nil
}

// generateText はテキストのみの入力を go-gemini-client で処理します。
func (a *GeminiAnalyzer) generateText(ctx context.Context, prompt string) (string, error) {
	slog.InfoContext(ctx, "解析コラボレーターを呼び出すのだ", "model", a.model, "multimodal", false)
	resp, err := a.aiClient.GenerateContent(ctx, prompt, a.model)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// generateWithImage は撮影ページ入力を genai SDK のマルチモーダル API で処理するのだ。
// go-gemini-client はテキストプロンプトしか受けないため、ここだけ SDK を直接使うのだよ。
func (a *GeminiAnalyzer) generateWithImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	if a.visionClient == nil {
		return "", fmt.Errorf("画像入力には visionClient が必要です")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	slog.InfoContext(ctx, "解析コラボレーターを呼び出すのだ", "model", a.model, "multimodal", true, "mime_type", mimeType)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := a.visionClient.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("解析コラボレーターが空の応答を返しました")
	}
	return text, nil
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-lesson-kit/internal/builder"
	"github.com/shouni/go-lesson-kit/internal/config"
	"github.com/shouni/go-lesson-kit/pkg/analysis"
	"github.com/shouni/go-lesson-kit/pkg/domain"
	"github.com/shouni/go-lesson-kit/pkg/publisher"
	"github.com/shouni/go-lesson-kit/pkg/session"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// Execute は解析から画像生成・保存までの全工程を実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	input, err := readSourceInput(ctx, appCtx)
	if err != nil {
		return err
	}

	sess, err := builder.BuildSession(ctx, appCtx)
	if err != nil {
		return err
	}

	if err := sess.Run(ctx, input); err != nil {
		return fmt.Errorf("パイプライン実行に失敗したのだ（状態: %s, メッセージ: %s）: %w",
			sess.State(), sess.ErrorMessage(), err)
	}

	return publishBundle(ctx, appCtx, sess.Document())
}

// ExecuteAnalyzeOnly は解析フェーズのみを実行し、Document を JSON として保存するのだ。
// 保存した JSON は手で修正してから illustrate に渡せるのだよ。
func ExecuteAnalyzeOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	input, err := readSourceInput(ctx, appCtx)
	if err != nil {
		return err
	}

	analyzer, err := builder.BuildAnalyzer(ctx, appCtx)
	if err != nil {
		return err
	}

	doc, err := analyzer.Analyze(ctx, analysis.Request{
		SourceText:    input.Text,
		ImageData:     input.ImageData,
		ImageMime:     input.ImageMime,
		VocabCriteria: input.VocabCriteria,
	})
	if err != nil {
		return fmt.Errorf("解析に失敗したのだ: %w", err)
	}

	outputPath := appCtx.Options.DocumentFile
	if outputPath == "" {
		outputPath, err = publisher.ResolveOutputPath(appCtx.Options.OutputDir, publisher.DefaultDocumentName)
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("DocumentのJSONエンコードに失敗しました: %w", err)
	}
	if err := appCtx.Writer.Write(ctx, outputPath, strings.NewReader(string(data)), "application/json"); err != nil {
		return fmt.Errorf("解析結果の保存に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "解析結果を保存したのだ", "path", outputPath)
	return nil
}

// ExecuteIllustrateOnly は、保存済みの Document JSON を読み込み、
// 画像生成と保存（Phase 2 & 3）だけを実行するのだ。
func ExecuteIllustrateOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	rc, err := appCtx.Reader.Open(ctx, cfg.Options.DocumentFile)
	if err != nil {
		return fmt.Errorf("DocumentJSON '%s' の読み込みに失敗しました: %w", cfg.Options.DocumentFile, err)
	}
	defer rc.Close()

	var doc domain.Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return fmt.Errorf("DocumentJSON '%s' のデコードに失敗しました: %w", cfg.Options.DocumentFile, err)
	}

	sess, err := builder.BuildSession(ctx, appCtx)
	if err != nil {
		return err
	}

	if err := sess.Resume(ctx, &doc); err != nil {
		return fmt.Errorf("画像生成フェーズに失敗したのだ: %w", err)
	}

	return publishBundle(ctx, appCtx, sess.Document())
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、
// アプリケーションコンテキストを初期化して返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	appCtx := builder.NewAppContext(cfg, httpClient, aiClient, reader, writer)
	return &appCtx, nil
}

// readSourceInput はコマンドラインの指定に従って教材の入力を組み立てるのだ。
// テキストは URL / ファイル / 標準入力から、画像はファイルから読み込む。
func readSourceInput(ctx context.Context, appCtx *builder.AppContext) (session.Input, error) {
	input := session.Input{VocabCriteria: appCtx.Options.VocabCriteria}

	switch {
	case appCtx.Options.SourceURL != "":
		extractor, err := builder.BuildExtractor(appCtx)
		if err != nil {
			return input, err
		}
		text, _, err := extractor.FetchAndExtractText(ctx, appCtx.Options.SourceURL)
		if err != nil {
			return input, fmt.Errorf("URLからの本文抽出に失敗しました: %w", err)
		}
		input.Text = text
	case appCtx.Options.SourceFile == "-":
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return input, fmt.Errorf("標準入力の読み込みに失敗しました: %w", err)
		}
		input.Text = string(text)
	case appCtx.Options.SourceFile != "":
		text, err := readAll(ctx, appCtx, appCtx.Options.SourceFile)
		if err != nil {
			return input, fmt.Errorf("教材テキストの読み込みに失敗しました: %w", err)
		}
		input.Text = string(text)
	}

	if appCtx.Options.SourceImage != "" {
		data, err := readAll(ctx, appCtx, appCtx.Options.SourceImage)
		if err != nil {
			return input, fmt.Errorf("教材画像の読み込みに失敗しました: %w", err)
		}
		input.ImageData = data
		input.ImageMime = detectImageMime(appCtx.Options.SourceImage)
	}

	return input, nil
}

func readAll(ctx context.Context, appCtx *builder.AppContext, path string) ([]byte, error) {
	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// detectImageMime は拡張子から画像の MIME タイプを推定します。不明なら PNG 扱いです。
func detectImageMime(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// publishBundle は完成した Document を学習バンドルとして保存するのだ。
func publishBundle(ctx context.Context, appCtx *builder.AppContext, doc *domain.Document) error {
	pub := builder.BuildPublisher(appCtx)
	result, err := pub.Publish(ctx, doc, publisher.Options{OutputDir: appCtx.Options.OutputDir})
	if err != nil {
		return fmt.Errorf("バンドルの保存に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "すべての生成工程が完了したのだ！",
		"bundle", result.MarkdownPath, "images", len(result.ImagePaths))
	return nil
}

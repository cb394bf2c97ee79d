package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-lesson-kit/internal/config"
	"github.com/shouni/go-lesson-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、教材から学習バンドル（要約・4コマ漫画・概念グラフ・語彙）を一気に生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "教材から学習バンドルを生成しますなのだ。",
	Long: `教材テキストまたは撮影した教科書ページを解析し、要約・4コマ漫画・
概念グラフ・挿絵つき語彙セットを生成して保存するのだ。
個々の挿絵の失敗はバンドル全体を失敗させないのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック: テキストか画像のどちらかは必要なのだ
	if opts.SourceFile == "" && opts.SourceURL == "" && opts.SourceImage == "" {
		if !isStdin() {
			return fmt.Errorf("ソース（--source-file / --source-url / --source-image）を指定してほしいのだ")
		}
		// パイプ入力は '-' 指定と同じ扱いにする
		opts.SourceFile = "-"
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("学習バンドル生成パイプラインを起動するのだ！",
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"output", opts.OutputDir)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

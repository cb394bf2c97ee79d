package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-lesson-kit/internal/config"
	"github.com/shouni/go-lesson-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// analyzeCmd は、解析フェーズだけを実行して Document JSON を保存するサブコマンドなのだ。
// 画像生成コストをかけずに、構成案を確認・修正したい場合に便利なのだ。
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "教材を解析して Document JSON を保存するのだ。",
	Long: `教材を解析し、要約・コマ構成・概念グラフ・語彙を含む Document JSON を
保存するのだ。保存した JSON は手で修正してから illustrate コマンドに渡せるのだよ。`,
	RunE: analyzeCommand,
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.SourceFile == "" && opts.SourceURL == "" && opts.SourceImage == "" {
		if !isStdin() {
			return fmt.Errorf("ソース（--source-file / --source-url / --source-image）を指定してほしいのだ")
		}
		opts.SourceFile = "-"
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("解析モードを起動するのだ！",
		"text_model", cfg.GeminiModel,
		"output", opts.OutputDir)

	return pipeline.ExecuteAnalyzeOnly(ctx, cfg)
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-lesson-kit/internal/config"
	"github.com/shouni/go-lesson-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// illustrateCmd は、既存の Document JSON を読み込んで画像生成フェーズを実行するサブコマンドなのだ。
// 解析をスキップして、挿絵の生成とバンドル保存のみを行うのだ。
var illustrateCmd = &cobra.Command{
	Use:   "illustrate",
	Short: "Document JSON から挿絵を生成して保存するのだ。",
	Long: `すでに生成・修正済みの Document JSON を読み込み、コマと語彙の挿絵生成と
バンドル保存を実行するのだ。解析のコストを抑えつつ、挿絵の再生成や調整を
行いたい場合に便利なのだ。`,
	RunE: illustrateCommand,
}

func illustrateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 必須となる入力ファイルの存在チェック
	if opts.DocumentFile == "" {
		return fmt.Errorf("読み込む Document JSON（--document-file）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("画像生成モードを起動するのだ！",
		"input_json", opts.DocumentFile,
		"output", opts.OutputDir,
		"image_model", cfg.GeminiImageModel)

	return pipeline.ExecuteIllustrateOnly(ctx, cfg)
}

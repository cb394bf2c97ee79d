package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel       = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultOutputDir   = "output"
	// DefaultRateInterval が 0 のとき、画像ファンアウトは流量制限なし（最大並列）で動くのだ。
	DefaultRateInterval = 0 * time.Second
	// DefaultStyleSuffix は学習バンドルの全挿絵に共通で適用する画風指示なのだ。
	DefaultStyleSuffix = "warm watercolor illustration style, friendly and educational, soft colors, clean composition, no text in image, high resolution"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル設定）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	StyleSuffix      string

	Options RunOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		StyleSuffix:      envutil.GetEnv("IMAGE_STYLE_SUFFIX", DefaultStyleSuffix),
	}
}

// RunOptions は CLI フラグから渡される実行時のパラメータなのだ。
type RunOptions struct {
	// ソース入力関連
	SourceFile  string // --source-file ('-'で標準入力)
	SourceURL   string // --source-url
	SourceImage string // --source-image: 撮影した教科書ページの画像パス

	// 生成内容の制御
	VocabCriteria string // --vocab-criteria: 語彙の選定基準

	// 入出力ファイル
	DocumentFile string // --document-file: 解析結果JSONの保存/読込パス
	OutputDir    string // --output-dir

	// AI挙動設定
	AIModel    string // --model: 解析用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval: 画像リクエストの間隔（0で無制限）
}

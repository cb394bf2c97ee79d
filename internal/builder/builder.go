package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-lesson-kit/pkg/adapters"
	"github.com/shouni/go-lesson-kit/pkg/analysis"
	"github.com/shouni/go-lesson-kit/pkg/publisher"
	"github.com/shouni/go-lesson-kit/pkg/session"

	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-web-exact/v2/pkg/extract"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	defaultGeminiTemperature = float32(0.2)
	imageCacheExpiration     = 30 * time.Minute
	imageCacheCleanup        = 1 * time.Hour
	imageCacheTTL            = 1 * time.Hour
)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// InitializeVisionClient は撮影ページ入力（マルチモーダル解析）用の genai クライアントを初期化するのだ。
func InitializeVisionClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("visionクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// BuildAnalyzer は解析コラボレーターを構築します。
func BuildAnalyzer(ctx context.Context, appCtx *AppContext) (analysis.Analyzer, error) {
	visionClient, err := InitializeVisionClient(ctx, appCtx.Config.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return analysis.NewGeminiAnalyzer(appCtx.aiClient, visionClient, appCtx.Config.GeminiModel)
}

// BuildSession は解析・画像生成の両コラボレーターを束ねたセッションを構築するのだ。
func BuildSession(ctx context.Context, appCtx *AppContext) (*session.Session, error) {
	analyzer, err := BuildAnalyzer(ctx, appCtx)
	if err != nil {
		return nil, err
	}

	imgGen, err := initializeImageGenerator(appCtx)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}

	illustrator, err := adapters.NewIllustrator(imgGen, appCtx.Config.StyleSuffix)
	if err != nil {
		return nil, err
	}

	// 流量制限は既定で無効（最大並列）。間隔が指定された場合のみ有効化するのだ。
	var limiter *rate.Limiter
	if appCtx.Options.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(appCtx.Options.RateInterval), 2)
	}

	return session.New(analyzer, illustrator, limiter)
}

// BuildPublisher はバンドル保存を担う Publisher を構築します。
func BuildPublisher(appCtx *AppContext) *publisher.LessonPublisher {
	return publisher.NewLessonPublisher(appCtx.Writer)
}

// BuildExtractor は Web ページから本文を抽出するエクストラクターを構築します。
func BuildExtractor(appCtx *AppContext) (*extract.Extractor, error) {
	extractor, err := extract.NewExtractor(appCtx.httpClient)
	if err != nil {
		return nil, fmt.Errorf("エクストラクターの初期化に失敗しました: %w", err)
	}
	return extractor, nil
}

// initializeImageGenerator は、画像キャッシュを含む ImageGenerator を初期化します。
func initializeImageGenerator(appCtx *AppContext) (imagekit.ImageGenerator, error) {
	imgCache := cache.New(imageCacheExpiration, imageCacheCleanup)
	core, err := imagekit.NewGeminiImageCore(
		appCtx.aiClient,
		appCtx.Reader,
		appCtx.httpClient,
		imgCache,
		imageCacheTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}

	return imagekit.NewGeminiGenerator(appCtx.Config.GeminiImageModel, core)
}

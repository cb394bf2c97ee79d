// Package adapters は外部の画像生成エンジンを本キットの契約に適合させます。
package adapters

import (
	"context"
	"fmt"

	"github.com/shouni/go-lesson-kit/pkg/prompts"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
)

// IllustrationAspectRatio は学習バンドルの挿絵（コマ・語彙共通）の推奨アスペクト比です。
const IllustrationAspectRatio = "1:1"

// Illustrator は gemini-image-kit の生成器を fanout.Synthesizer 契約に適合させるアダプターなのだ。
type Illustrator struct {
	generator   imagekit.ImageGenerator
	styleSuffix string
}

// NewIllustrator は Illustrator を生成します。styleSuffix は全挿絵共通の画風指示です。
func NewIllustrator(generator imagekit.ImageGenerator, styleSuffix string) (*Illustrator, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator は必須です")
	}
	return &Illustrator{generator: generator, styleSuffix: styleSuffix}, nil
}

// Synthesize は1件のプロンプトから挿絵を生成します。
// 失敗の吸収は呼び出し側（fanout.Executor / セッションの再生成）の責務です。
func (a *Illustrator) Synthesize(ctx context.Context, prompt string) (*imagedom.ImageResponse, error) {
	req := imagedom.ImageGenerationRequest{
		Prompt:         prompts.JoinStyle(prompt, a.styleSuffix),
		NegativePrompt: prompts.NegativeIllustrationPrompt,
		AspectRatio:    IllustrationAspectRatio,
	}
	return a.generator.GenerateMangaPanel(ctx, req)
}

// Package fanout は、複数の画像生成リクエストを互いに待たせずに発行し、
// 全件が確定（成功または失敗）するまで待ち合わせる実行器を提供します。
package fanout

import (
	"context"
	"log/slog"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Synthesizer は1件のプロンプトから画像を生成する外部コラボレーターの最小契約です。
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (*imagedom.ImageResponse, error)
}

// Outcome は1件分の確定結果です。失敗は Err として記録され、呼び出し元へ
// エラーとしては伝播しません（吸収されたエラー）。
type Outcome struct {
	Index int
	Image *imagedom.ImageResponse
	Err   error
}

// OK は画像生成が成功したかを返します。
func (o Outcome) OK() bool {
	return o.Err == nil && o.Image != nil
}

// Executor は N 件のプロンプトに対する画像生成ファンアウトの実行器なのだ。
type Executor struct {
	synth   Synthesizer
	limiter *rate.Limiter
}

// NewExecutor は Executor を生成します。limiter が nil の場合は流量制限なし
// （最大並列）で動作します。
func NewExecutor(synth Synthesizer, limiter *rate.Limiter) *Executor {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Executor{synth: synth, limiter: limiter}
}

// Settle は N 件のリクエストをすべて同時に発行し、全件が確定するまで待つのだ。
// 返り値は入力と同じ長さ・同じ順序で、完了順には依存しない。
// 個々の失敗は Outcome.Err に吸収され、この関数自体は決して失敗しないのだよ。
func (e *Executor) Settle(ctx context.Context, promptList []string) []Outcome {
	outcomes := make([]Outcome, len(promptList))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, prompt := range promptList {
		i, prompt := i, prompt
		outcomes[i] = Outcome{Index: i}

		eg.Go(func() error {
			if err := e.limiter.Wait(egCtx); err != nil {
				outcomes[i].Err = err
				return nil
			}

			resp, err := e.synth.Synthesize(egCtx, prompt)
			if err != nil {
				// 吸収されたエラー: ログに残すだけで、バッチ全体は失敗させない
				slog.Warn("画像生成に失敗したのだ（この項目は未挿絵のまま続行する）",
					"index", i, "error", err)
				outcomes[i].Err = err
				return nil
			}

			outcomes[i].Image = resp
			return nil
		})
	}

	// ゴルーチンは常に nil を返すため、ここでのエラーは発生しない
	_ = eg.Wait()
	return outcomes
}

package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// fakeSynth はプロンプト内容で成否を切り替えられるテスト用の Synthesizer なのだ。
type fakeSynth struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSynth) Synthesize(ctx context.Context, prompt string) (*imagedom.ImageResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()

	if strings.Contains(prompt, "fail") {
		return nil, errors.New("生成エンジンの一時的なエラー")
	}
	return &imagedom.ImageResponse{Data: []byte(prompt), MimeType: "image/png"}, nil
}

func TestExecutor_Settle(t *testing.T) {
	t.Run("全件成功なら全Outcomeが画像を持つのだ", func(t *testing.T) {
		synth := &fakeSynth{}
		exec := NewExecutor(synth, nil)

		prompts := []string{"p1", "p2", "p3", "p4"}
		outcomes := exec.Settle(context.Background(), prompts)

		if len(outcomes) != 4 {
			t.Fatalf("結果数が違うのだ: %d", len(outcomes))
		}
		for i, o := range outcomes {
			if !o.OK() {
				t.Errorf("項目 %d が失敗しているのだ: %v", i, o.Err)
			}
			// 完了順に関わらず、結果は入力と同じ順序で並ぶ
			if o.Index != i || string(o.Image.Data) != prompts[i] {
				t.Errorf("順序が保存されていないのだ: index=%d, data=%s", o.Index, o.Image.Data)
			}
		}
	})

	t.Run("1件の失敗は吸収され、他の項目は成功するのだ", func(t *testing.T) {
		synth := &fakeSynth{}
		exec := NewExecutor(synth, nil)

		outcomes := exec.Settle(context.Background(), []string{"p1", "fail-p2", "p3"})

		if len(outcomes) != 3 {
			t.Fatalf("失敗があっても全件分の結果が返るべきなのだ: %d", len(outcomes))
		}
		if outcomes[1].OK() || outcomes[1].Err == nil {
			t.Error("項目1は失敗として記録されるべきなのだ")
		}
		if outcomes[1].Image != nil {
			t.Error("失敗した項目の画像は nil のままなのだ")
		}
		if !outcomes[0].OK() || !outcomes[2].OK() {
			t.Error("他の項目の成功は失敗に巻き込まれないのだ")
		}
	})

	t.Run("全件失敗でもバッチ自体は確定するのだ", func(t *testing.T) {
		synth := &fakeSynth{}
		exec := NewExecutor(synth, nil)

		outcomes := exec.Settle(context.Background(), []string{"fail-1", "fail-2"})
		for i, o := range outcomes {
			if o.OK() {
				t.Errorf("項目 %d は失敗しているはずなのだ", i)
			}
		}
	})

	t.Run("空のバッチは空の結果を返すのだ", func(t *testing.T) {
		exec := NewExecutor(&fakeSynth{}, nil)
		if outcomes := exec.Settle(context.Background(), nil); len(outcomes) != 0 {
			t.Errorf("空であるべきなのだ: %d", len(outcomes))
		}
	})

	t.Run("大きなバッチでも全リクエストが発行されるのだ", func(t *testing.T) {
		synth := &fakeSynth{}
		exec := NewExecutor(synth, nil)

		prompts := make([]string, 12)
		for i := range prompts {
			prompts[i] = fmt.Sprintf("prompt-%d", i)
		}
		outcomes := exec.Settle(context.Background(), prompts)

		if len(outcomes) != 12 || len(synth.calls) != 12 {
			t.Errorf("全件が発行されるべきなのだ: outcomes=%d, calls=%d", len(outcomes), len(synth.calls))
		}
	})
}

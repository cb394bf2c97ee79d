// Package session は、学習バンドル生成パイプラインの司令塔です。
// 1セッション = 1つの生きた Document を持ち、
// idle → analyzing → synthesizing_images → complete の状態機械を駆動します。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/shouni/go-lesson-kit/pkg/analysis"
	"github.com/shouni/go-lesson-kit/pkg/domain"
	"github.com/shouni/go-lesson-kit/pkg/fanout"
	"github.com/shouni/go-lesson-kit/pkg/prompts"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// State はパイプラインの状態です。
type State string

const (
	StateIdle         State = "idle"
	StateAnalyzing    State = "analyzing"
	StateSynthesizing State = "synthesizing_images"
	StateComplete     State = "complete"
	StateError        State = "error"
)

var (
	// ErrEmptyInput はテキストも画像も無い入力に対する境界ガードです。
	ErrEmptyInput = errors.New("テキストか画像のどちらかを入力してほしいのだ")
	// ErrRunInFlight は実行中の開始・リセット要求に対して返ります。状態は一切変化しません。
	ErrRunInFlight = errors.New("パイプラインが実行中のため、この操作は無視されたのだ")
	// ErrStaleRun はリセットや再実行の後に解決した古い実行の結果が破棄されたことを示します。
	ErrStaleRun = errors.New("古い実行の結果が破棄されたのだ")
	// ErrNotComplete は complete 状態でのみ許される操作へのガードです。
	ErrNotComplete = errors.New("この操作は生成完了後にのみ実行できるのだ")
	// ErrPanelNotFound は存在しないパネルIDへの操作を示します。
	ErrPanelNotFound = errors.New("指定されたパネルが見つからないのだ")
)

// Input は1回の実行への生入力です。Text と ImageData の少なくとも一方が必要です。
type Input struct {
	Text          string
	ImageData     []byte
	ImageMime     string
	VocabCriteria string
}

// Session はセッションスコープのコンテキストオブジェクトなのだ。
// 生きた Document はここにだけ存在し、アンビエントなシングルトンは作らないのだよ。
type Session struct {
	mu         sync.Mutex
	state      State
	errMessage string
	doc        *domain.Document

	// runSeq は実行ごとに単調増加するトークン。非同期結果を適用する前に
	// 必ず照合し、不一致なら黙って破棄する（リセット後の遅延解決対策）。
	runSeq int64

	analyzer   analysis.Analyzer
	synth      fanout.Synthesizer
	executor   *fanout.Executor
	regenGroup singleflight.Group
}

// New は Session を初期化します。limiter が nil の場合、ファンアウトは
// 流量制限なし（最大並列）で動作します。
func New(analyzer analysis.Analyzer, synth fanout.Synthesizer, limiter *rate.Limiter) (*Session, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer は必須です")
	}
	if synth == nil {
		return nil, fmt.Errorf("synth は必須です")
	}
	return &Session{
		state:    StateIdle,
		analyzer: analyzer,
		synth:    synth,
		executor: fanout.NewExecutor(synth, limiter),
	}, nil
}

// State は現在の状態を返します。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ErrorMessage は error 状態のユーザー向けメッセージを返します。
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

// Document は現在の Document を返します。実行前・リセット後は nil です。
func (s *Session) Document() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Run は解析から画像合成までの全工程を実行するのだ。
// idle / error 以外の状態からの呼び出しは何も変更せず ErrRunInFlight を返す
// （冪等な開始ガード）。解析失敗は致命的で error 状態へ遷移し、
// 個々の画像生成失敗は吸収されて未挿絵のまま complete に到達する。
func (s *Session) Run(ctx context.Context, in Input) error {
	if strings.TrimSpace(in.Text) == "" && len(in.ImageData) == 0 {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if s.state != StateIdle && s.state != StateError {
		s.mu.Unlock()
		return ErrRunInFlight
	}
	s.runSeq++
	run := s.runSeq
	s.state = StateAnalyzing
	s.errMessage = ""
	s.doc = nil
	s.mu.Unlock()

	slog.InfoContext(ctx, "解析フェーズを開始するのだ", "run", run, "has_image", len(in.ImageData) > 0)

	doc, err := s.analyzer.Analyze(ctx, analysis.Request{
		SourceText:    in.Text,
		ImageData:     in.ImageData,
		ImageMime:     in.ImageMime,
		VocabCriteria: in.VocabCriteria,
	})

	s.mu.Lock()
	if s.runSeq != run {
		s.mu.Unlock()
		slog.Info("リセット後に解決した解析結果を破棄するのだ", "run", run)
		return ErrStaleRun
	}
	if err != nil {
		s.state = StateError
		s.errMessage = "教材の解析に失敗しました。入力を確認して、もう一度試してほしいのだ。"
		s.mu.Unlock()
		return fmt.Errorf("解析フェーズが失敗しました: %w", err)
	}
	s.doc = doc
	s.state = StateSynthesizing
	s.mu.Unlock()

	return s.synthesize(ctx, run, doc)
}

// Resume は解析済みの Document を引き取り、画像合成フェーズだけを実行するのだ。
// 保存済みの Document JSON から挿絵を作り直すときに使うのだよ。
func (s *Session) Resume(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return fmt.Errorf("doc は必須です")
	}
	if err := analysis.ValidateDocument(doc); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateIdle && s.state != StateError {
		s.mu.Unlock()
		return ErrRunInFlight
	}
	s.runSeq++
	run := s.runSeq
	s.doc = doc
	s.errMessage = ""
	s.state = StateSynthesizing
	s.mu.Unlock()

	return s.synthesize(ctx, run, doc)
}

// synthesize はコマと語彙の2つの独立したバッチを同時にファンアウトし、
// 両方が全件確定してから元の順序のままマージするのだ。
func (s *Session) synthesize(ctx context.Context, run int64, doc *domain.Document) error {
	panelPrompts := make([]string, len(doc.ComicPanels))
	for i, p := range doc.ComicPanels {
		panelPrompts[i] = p.ImagePrompt
	}

	vocabPrompts := make([]string, len(doc.Vocabulary))
	for i, v := range doc.Vocabulary {
		prompt := strings.TrimSpace(v.ImagePrompt)
		if prompt == "" {
			prompt = prompts.DefaultVocabPrompt(v.Word)
		}
		vocabPrompts[i] = prompt
	}

	slog.InfoContext(ctx, "画像合成フェーズを開始するのだ",
		"run", run, "panels", len(panelPrompts), "vocabulary", len(vocabPrompts))

	// 2つのバッチは互いに独立: 語彙側の遅延や失敗がコマ側を待たせることはない
	var panelOutcomes, vocabOutcomes []fanout.Outcome
	var eg errgroup.Group
	eg.Go(func() error {
		panelOutcomes = s.executor.Settle(ctx, panelPrompts)
		return nil
	})
	eg.Go(func() error {
		vocabOutcomes = s.executor.Settle(ctx, vocabPrompts)
		return nil
	})
	_ = eg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runSeq != run || s.doc != doc {
		slog.Info("リセット後に解決した画像バッチを破棄するのだ", "run", run)
		return ErrStaleRun
	}

	if err := ctx.Err(); err != nil {
		s.state = StateError
		s.errMessage = "画像の生成が中断されました。"
		return fmt.Errorf("画像合成フェーズが中断されました: %w", err)
	}

	succeeded := 0
	for _, o := range panelOutcomes {
		if o.OK() {
			doc.ComicPanels[o.Index].Image = o.Image
			succeeded++
		}
	}
	for _, o := range vocabOutcomes {
		if o.OK() {
			doc.Vocabulary[o.Index].Image = o.Image
			succeeded++
		}
	}

	s.state = StateComplete
	slog.InfoContext(ctx, "学習バンドルが完成したのだ！",
		"run", run,
		"succeeded", succeeded,
		"total", len(panelOutcomes)+len(vocabOutcomes))
	return nil
}

// UpdatePanelText は指定パネルの編集可能フィールドを置き換えます。
// 同期・純粋で、存在しないIDには何もしません（false を返すだけ）。
func (s *Session) UpdatePanelText(panelID int, patch domain.PanelPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return false
	}
	return s.doc.ApplyPanelPatch(panelID, patch)
}

// RegenerateImage は保存済みの imagePrompt でパネル画像を作り直すのだ。
// complete 状態でのみ呼び出せる。生成失敗は吸収され（ログのみ）、
// 既存の画像はそのまま残る。同一パネルへの同時要求は singleflight で集約するのだよ。
func (s *Session) RegenerateImage(ctx context.Context, panelID int) error {
	s.mu.Lock()
	if s.state != StateComplete {
		s.mu.Unlock()
		return ErrNotComplete
	}
	panel := s.doc.PanelByID(panelID)
	if panel == nil {
		s.mu.Unlock()
		return ErrPanelNotFound
	}
	prompt := panel.ImagePrompt
	run := s.runSeq
	s.mu.Unlock()

	v, err, _ := s.regenGroup.Do(strconv.Itoa(panelID), func() (interface{}, error) {
		return s.synth.Synthesize(ctx, prompt)
	})
	if err != nil {
		slog.Warn("パネル画像の再生成に失敗したのだ（既存の状態を維持する）",
			"panel_id", panelID, "error", err)
		return nil
	}
	img := v.(*imagedom.ImageResponse)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runSeq != run || s.state != StateComplete {
		slog.Info("リセット後に解決した再生成結果を破棄するのだ", "panel_id", panelID)
		return nil
	}
	if p := s.doc.PanelByID(panelID); p != nil {
		p.Image = img
	}
	return nil
}

// ReplaceGraph は Document のグラフを丸ごと置き換えるのだ（グラフ編集の保存）。
// 部分保存は存在しない。置き換えは全か無かだよ。
func (s *Session) ReplaceGraph(g domain.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete || s.doc == nil {
		return ErrNotComplete
	}
	s.doc.Graph = g
	return nil
}

// Reset は complete / error からのみ idle に戻り、Document を破棄します。
// runSeq を進めるため、以降に解決した過去の実行の結果はすべて破棄されます。
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete && s.state != StateError {
		return ErrRunInFlight
	}
	s.runSeq++
	s.doc = nil
	s.errMessage = ""
	s.state = StateIdle
	return nil
}

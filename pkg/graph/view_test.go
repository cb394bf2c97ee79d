package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shouni/go-lesson-kit/pkg/analysis"
	"github.com/shouni/go-lesson-kit/pkg/domain"
	"github.com/shouni/go-lesson-kit/pkg/session"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

type stubAnalyzer struct{ doc *domain.Document }

func (s *stubAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*domain.Document, error) {
	return s.doc, nil
}

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, prompt string) (*imagedom.ImageResponse, error) {
	return &imagedom.ImageResponse{Data: []byte(prompt), MimeType: "image/png"}, nil
}

// completedSession は complete 状態まで進めたセッションを用意するヘルパーなのだ。
func completedSession(t *testing.T) *session.Session {
	t.Helper()
	doc := &domain.Document{
		Summary:     "水の循環の要約",
		ComicPanels: []domain.Panel{{ID: 1, ImagePrompt: "p1"}},
		Graph:       waterCycleGraph(),
	}
	sess, err := session.New(&stubAnalyzer{doc: doc}, stubSynth{}, nil)
	if err != nil {
		t.Fatalf("セッション生成に失敗したのだ: %v", err)
	}
	if err := sess.Run(context.Background(), session.Input{Text: "教材"}); err != nil {
		t.Fatalf("実行失敗なのだ: %v", err)
	}
	return sess
}

func TestNewView(t *testing.T) {
	t.Run("Document が無いと作れないのだ", func(t *testing.T) {
		sess, err := session.New(&stubAnalyzer{}, stubSynth{}, nil)
		if err != nil {
			t.Fatalf("セッション生成に失敗したのだ: %v", err)
		}
		if _, err := NewView(sess, Config{}); !errors.Is(err, ErrNoDocument) {
			t.Errorf("ErrNoDocument であるべきなのだ: %v", err)
		}
	})

	t.Run("初期モードは Simulated なのだ", func(t *testing.T) {
		v, err := NewView(completedSession(t), Config{})
		if err != nil {
			t.Fatalf("生成失敗なのだ: %v", err)
		}
		if v.Mode() != ModeSimulated || v.Simulation() == nil || v.Edit() != nil {
			t.Errorf("Simulated モードで始まるべきなのだ: mode=%s", v.Mode())
		}
	})
}

func TestView_EditCycle(t *testing.T) {
	t.Run("保存でグラフが原子的に置き換わり、レイアウトは作り直されるのだ", func(t *testing.T) {
		sess := completedSession(t)
		v, err := NewView(sess, Config{})
		if err != nil {
			t.Fatalf("生成失敗なのだ: %v", err)
		}

		edit, err := v.BeginEdit()
		if err != nil {
			t.Fatalf("編集開始失敗なのだ: %v", err)
		}
		if v.Mode() != ModeEditing || v.Simulation() != nil {
			t.Fatal("編集モード中はレイアウトを持たないのだ")
		}

		newID := edit.AddNode()
		edit.RemoveNode("cloud")

		// 保存前の Document は編集前のまま
		if !sess.Document().Graph.HasNode("cloud") || sess.Document().Graph.HasNode(newID) {
			t.Fatal("保存前に Document が変わってはいけないのだ")
		}

		if err := v.Save(); err != nil {
			t.Fatalf("保存失敗なのだ: %v", err)
		}
		saved := sess.Document().Graph
		if saved.HasNode("cloud") || !saved.HasNode(newID) {
			t.Error("保存で編集内容が丸ごと反映されるのだ")
		}
		if v.Mode() != ModeSimulated || v.Simulation() == nil {
			t.Error("保存後は新しいレイアウトで Simulated に戻るのだ")
		}
		// 削除したノードは新しいレイアウトに現れない
		if _, ok := v.Simulation().Position("cloud"); ok {
			t.Error("レイアウトはゼロから作り直されるのだ")
		}
	})

	t.Run("キャンセルで編集は跡形もなく破棄されるのだ", func(t *testing.T) {
		sess := completedSession(t)
		v, err := NewView(sess, Config{})
		if err != nil {
			t.Fatalf("生成失敗なのだ: %v", err)
		}

		before := sess.Document().Graph.Clone()
		edit, err := v.BeginEdit()
		if err != nil {
			t.Fatalf("編集開始失敗なのだ: %v", err)
		}
		edit.AddNode()
		edit.RemoveNode("water")
		edit.SetNodeLabel("rain", "changed")

		if err := v.Cancel(); err != nil {
			t.Fatalf("キャンセル失敗なのだ: %v", err)
		}
		if !reflect.DeepEqual(sess.Document().Graph, before) {
			t.Error("キャンセル後の Document は編集前と完全に一致するべきなのだ")
		}
		if v.Mode() != ModeSimulated {
			t.Errorf("Simulated に戻るべきなのだ: %s", v.Mode())
		}
	})

	t.Run("モード違反の操作は拒否されるのだ", func(t *testing.T) {
		v, err := NewView(completedSession(t), Config{})
		if err != nil {
			t.Fatalf("生成失敗なのだ: %v", err)
		}

		// Simulated 中の保存・キャンセル
		if err := v.Save(); !errors.Is(err, ErrWrongMode) {
			t.Errorf("ErrWrongMode であるべきなのだ: %v", err)
		}
		if err := v.Cancel(); !errors.Is(err, ErrWrongMode) {
			t.Errorf("ErrWrongMode であるべきなのだ: %v", err)
		}

		// Editing 中の再編集開始
		if _, err := v.BeginEdit(); err != nil {
			t.Fatalf("編集開始失敗なのだ: %v", err)
		}
		if _, err := v.BeginEdit(); !errors.Is(err, ErrWrongMode) {
			t.Errorf("ErrWrongMode であるべきなのだ: %v", err)
		}
	})

	t.Run("編集モードへの再入場で以前のレイアウトは破棄されるのだ", func(t *testing.T) {
		v, err := NewView(completedSession(t), Config{})
		if err != nil {
			t.Fatalf("生成失敗なのだ: %v", err)
		}

		// レイアウトを進めてからドラッグで座標を崩す
		for i := 0; i < 100; i++ {
			v.Simulation().Step(1)
		}
		v.Simulation().Drag("water", 1, 1)
		v.Simulation().Release("water")
		distorted, _ := v.Simulation().Position("water")

		if _, err := v.BeginEdit(); err != nil {
			t.Fatalf("編集開始失敗なのだ: %v", err)
		}
		if err := v.Cancel(); err != nil {
			t.Fatalf("キャンセル失敗なのだ: %v", err)
		}

		// 復帰後は既定の初期配置から始まる（以前の座標は参照しない）
		fresh, _ := v.Simulation().Position("water")
		if fresh == distorted {
			t.Error("以前のレイアウト座標が持ち越されてはいけないのだ")
		}
	})
}

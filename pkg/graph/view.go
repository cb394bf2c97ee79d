package graph

import (
	"errors"

	"github.com/shouni/go-lesson-kit/pkg/session"
)

// Mode はグラフ表示モデルの表示モードです。2つのモードは排他的です。
type Mode string

const (
	// ModeSimulated は力学レイアウトによる表示モード（既定）です。
	ModeSimulated Mode = "simulated"
	// ModeEditing はノード・リンクリストの構造編集モードです。
	ModeEditing Mode = "editing"
)

var (
	// ErrNoDocument は Document がまだ存在しない（実行前・リセット後）ことを示します。
	ErrNoDocument = errors.New("表示できる Document がまだ無いのだ")
	// ErrWrongMode は現在のモードでは許されない操作を示します。
	ErrWrongMode = errors.New("現在の表示モードではこの操作はできないのだ")
)

// View はセッションの Document が持つグラフの表示モデルなのだ。
// Simulated モードではレイアウトを所有し、Editing モードでは下書きを所有する。
// レイアウトは常にこのコンポーネントの一時データで、Document 側には残らない。
type View struct {
	sess *session.Session
	cfg  Config
	mode Mode
	sim  *Simulation
	edit *EditSession
}

// NewView はセッションの現在のグラフから表示モデルを構築します。
// 初期モードは Simulated で、レイアウトは既定の初期配置から始まります。
func NewView(sess *session.Session, cfg Config) (*View, error) {
	doc := sess.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}
	return &View{
		sess: sess,
		cfg:  cfg,
		mode: ModeSimulated,
		sim:  NewSimulation(doc.Graph, cfg),
	}, nil
}

// Mode は現在の表示モードを返します。
func (v *View) Mode() Mode {
	return v.mode
}

// Simulation は Simulated モード中のシミュレーションを返します。
// Editing モード中は nil です（レイアウトには一切触れない）。
func (v *View) Simulation() *Simulation {
	return v.sim
}

// Edit は Editing モード中の編集セッションを返します。Simulated モード中は nil です。
func (v *View) Edit() *EditSession {
	return v.edit
}

// BeginEdit は編集モードに入り、現在のグラフの下書きを返すのだ。
// それまでのレイアウトはこの時点で破棄する。座標は永続状態ではないのだ。
func (v *View) BeginEdit() (*EditSession, error) {
	if v.mode != ModeSimulated {
		return nil, ErrWrongMode
	}
	doc := v.sess.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}
	v.mode = ModeEditing
	v.sim = nil
	v.edit = NewEditSession(doc.Graph)
	return v.edit, nil
}

// Save は下書きで Document のグラフを原子的に置き換え、Simulated モードへ戻るのだ。
// レイアウトはゼロから再計算される（以前の座標は参照しない）。
func (v *View) Save() error {
	if v.mode != ModeEditing {
		return ErrWrongMode
	}
	if err := v.sess.ReplaceGraph(v.edit.Result()); err != nil {
		return err
	}
	return v.Rebuild()
}

// Cancel は下書きを破棄して Simulated モードへ戻ります。
// Document のグラフは編集前のまま一切変化しません。
func (v *View) Cancel() error {
	if v.mode != ModeEditing {
		return ErrWrongMode
	}
	return v.Rebuild()
}

// Rebuild は現在の Document のグラフからレイアウトをゼロから作り直すのだ。
// 新しい Document の到着時や編集モードからの復帰時に呼ばれる。
func (v *View) Rebuild() error {
	doc := v.sess.Document()
	if doc == nil {
		return ErrNoDocument
	}
	v.mode = ModeSimulated
	v.edit = nil
	v.sim = NewSimulation(doc.Graph, v.cfg)
	return nil
}

package graph

import (
	"github.com/shouni/go-lesson-kit/pkg/domain"
)

// EditSession は構造編集の下書き（scratch copy）なのだ。
// 編集はすべて下書きに蓄積され、Result() が返すグラフで丸ごと置き換えるか、
// 破棄するかの二択。部分保存は存在しないのだよ。
type EditSession struct {
	base  domain.Graph
	draft domain.Graph
}

// NewEditSession は現在のグラフの独立した下書きを作ります。
func NewEditSession(g domain.Graph) *EditSession {
	return &EditSession{
		base:  g.Clone(),
		draft: g.Clone(),
	}
}

// Draft は編集中の下書きへの参照を返します（フィールド直接編集用）。
func (e *EditSession) Draft() *domain.Graph {
	return &e.draft
}

// Base は編集開始時点のグラフの複製を返します。
func (e *EditSession) Base() domain.Graph {
	return e.base.Clone()
}

// Result は保存用の下書きの複製を返すのだ。呼び出し後も編集は継続できる。
func (e *EditSession) Result() domain.Graph {
	return e.draft.Clone()
}

// AddNode は未使用の新しいIDでノードを追加し、そのIDを返します。
func (e *EditSession) AddNode() string {
	id := e.draft.FreshNodeID()
	e.draft.Nodes = append(e.draft.Nodes, domain.Node{ID: id, Label: id, Group: 1})
	return id
}

// RemoveNode は指定ノードを削除します。ノードを参照するリンクは連鎖削除
// **しません** — 宙ぶらりんのリンクは許容された状態なのだ。
func (e *EditSession) RemoveNode(id string) bool {
	for i, n := range e.draft.Nodes {
		if n.ID == id {
			e.draft.Nodes = append(e.draft.Nodes[:i], e.draft.Nodes[i+1:]...)
			return true
		}
	}
	return false
}

// AddLink は新しいリンクを追加し、そのインデックスを返します。
// source は最初の既存ノードのID（ノードが無ければ空文字）が既定値です。
func (e *EditSession) AddLink() int {
	link := domain.Link{}
	if len(e.draft.Nodes) > 0 {
		link.SourceID = e.draft.Nodes[0].ID
	}
	e.draft.Links = append(e.draft.Links, link)
	return len(e.draft.Links) - 1
}

// RemoveLink は指定インデックスのリンクを削除します。
func (e *EditSession) RemoveLink(index int) bool {
	if index < 0 || index >= len(e.draft.Links) {
		return false
	}
	e.draft.Links = append(e.draft.Links[:index], e.draft.Links[index+1:]...)
	return true
}

// SetNodeLabel は指定ノードの表示名を変更します。
func (e *EditSession) SetNodeLabel(id, label string) bool {
	for i := range e.draft.Nodes {
		if e.draft.Nodes[i].ID == id {
			e.draft.Nodes[i].Label = label
			return true
		}
	}
	return false
}

// SetNodeGroup は指定ノードの色分類グループを変更します。
func (e *EditSession) SetNodeGroup(id string, group int) bool {
	for i := range e.draft.Nodes {
		if e.draft.Nodes[i].ID == id {
			e.draft.Nodes[i].Group = group
			return true
		}
	}
	return false
}

// SetLink は指定インデックスのリンクの属性を置き換えます。
// 実在しないノードIDを指す値も拒否しません（許容されたエッジケース）。
func (e *EditSession) SetLink(index int, link domain.Link) bool {
	if index < 0 || index >= len(e.draft.Links) {
		return false
	}
	e.draft.Links[index] = link
	return true
}

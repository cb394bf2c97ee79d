package graph

import (
	"reflect"
	"testing"

	"github.com/shouni/go-lesson-kit/pkg/domain"
)

func TestEditSession(t *testing.T) {
	t.Run("下書きへの編集は元のグラフに影響しないのだ", func(t *testing.T) {
		original := waterCycleGraph()
		e := NewEditSession(original)

		e.AddNode()
		e.RemoveLink(0)
		e.SetNodeLabel("water", "H2O")

		if !reflect.DeepEqual(original, waterCycleGraph()) {
			t.Error("編集は下書きにだけ蓄積されるのだ")
		}
		if !reflect.DeepEqual(e.Base(), waterCycleGraph()) {
			t.Error("Base は編集開始時点のまま保たれるのだ")
		}
	})

	t.Run("AddNode は未使用IDのノードを追加するのだ", func(t *testing.T) {
		e := NewEditSession(waterCycleGraph())
		id := e.AddNode()
		if id != "concept-1" {
			t.Errorf("期待: concept-1, 実際: %s", id)
		}
		if !e.Draft().HasNode(id) {
			t.Error("追加したノードが下書きに存在しないのだ")
		}

		// 2回目は別のIDが払い出される
		if id2 := e.AddNode(); id2 == id {
			t.Errorf("IDが重複しているのだ: %s", id2)
		}
	})

	t.Run("RemoveNode はリンクを連鎖削除しないのだ", func(t *testing.T) {
		e := NewEditSession(waterCycleGraph())
		if !e.RemoveNode("cloud") {
			t.Fatal("削除に成功するべきなのだ")
		}

		draft := e.Draft()
		if draft.HasNode("cloud") {
			t.Error("ノードは消えているべきなのだ")
		}
		// cloud を参照するリンク2本は宙ぶらりんのまま残る
		remaining := 0
		for _, l := range draft.Links {
			if l.SourceID == "cloud" || l.TargetID == "cloud" {
				remaining++
			}
		}
		if remaining != 2 {
			t.Errorf("宙ぶらりんのリンクは残るべきなのだ: %d", remaining)
		}
	})

	t.Run("AddLink の既定ソースは最初のノードなのだ", func(t *testing.T) {
		e := NewEditSession(waterCycleGraph())
		idx := e.AddLink()
		link := e.Draft().Links[idx]
		if link.SourceID != "water" || link.TargetID != "" {
			t.Errorf("既定値が違うのだ: %+v", link)
		}
	})

	t.Run("ノードの無いグラフへの AddLink は空のソースになるのだ", func(t *testing.T) {
		e := NewEditSession(domain.Graph{})
		idx := e.AddLink()
		if e.Draft().Links[idx].SourceID != "" {
			t.Errorf("空であるべきなのだ: %+v", e.Draft().Links[idx])
		}
	})

	t.Run("SetLink は実在しないノードへの参照も拒否しないのだ", func(t *testing.T) {
		e := NewEditSession(waterCycleGraph())
		idx := e.AddLink()
		if !e.SetLink(idx, domain.Link{SourceID: "ghost-a", TargetID: "ghost-b"}) {
			t.Fatal("成功するべきなのだ")
		}
		if e.Draft().Links[idx].SourceID != "ghost-a" {
			t.Error("値がそのまま保存されるべきなのだ")
		}
	})

	t.Run("範囲外のリンク操作は false なのだ", func(t *testing.T) {
		e := NewEditSession(waterCycleGraph())
		if e.RemoveLink(-1) || e.RemoveLink(100) || e.SetLink(100, domain.Link{}) {
			t.Error("範囲外のインデックスには false を返すのだ")
		}
	})

	t.Run("Result は下書きの独立した複製を返すのだ", func(t *testing.T) {
		e := NewEditSession(waterCycleGraph())
		result := e.Result()
		e.SetNodeLabel("water", "changed")
		if result.Nodes[0].Label == "changed" {
			t.Error("Result 取得後の編集は結果に波及しないのだ")
		}
	})
}

package domain

import (
	"reflect"
	"testing"
)

func TestGraph_Clone(t *testing.T) {
	t.Run("複製は元のグラフから独立しているのだ", func(t *testing.T) {
		original := Graph{
			Nodes: []Node{{ID: "a", Label: "A", Group: 1}, {ID: "b", Label: "B", Group: 2}},
			Links: []Link{{SourceID: "a", TargetID: "b", Relationship: "causes"}},
		}

		clone := original.Clone()
		if !reflect.DeepEqual(original, clone) {
			t.Fatalf("複製直後は等価であるべきなのだ。期待: %+v, 実際: %+v", original, clone)
		}

		clone.Nodes[0].Label = "changed"
		clone.Links[0].Relationship = "changed"
		if original.Nodes[0].Label != "A" || original.Links[0].Relationship != "causes" {
			t.Error("複製への変更が元のグラフに波及しているのだ")
		}
	})

	t.Run("空のグラフも安全に複製できるのだ", func(t *testing.T) {
		clone := Graph{}.Clone()
		if clone.Nodes != nil || clone.Links != nil {
			t.Errorf("空グラフの複製は空のままであるべきなのだ: %+v", clone)
		}
	})
}

func TestGraph_FreshNodeID(t *testing.T) {
	t.Run("未使用の最小番号を払い出すのだ", func(t *testing.T) {
		g := Graph{Nodes: []Node{{ID: "concept-1"}, {ID: "concept-3"}}}
		if id := g.FreshNodeID(); id != "concept-2" {
			t.Errorf("期待: concept-2, 実際: %s", id)
		}
	})

	t.Run("空のグラフでは concept-1 から始まるのだ", func(t *testing.T) {
		if id := (Graph{}).FreshNodeID(); id != "concept-1" {
			t.Errorf("期待: concept-1, 実際: %s", id)
		}
	})
}

func TestGraph_HasNode(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "water"}},
		// cloud ノードは存在しない。宙ぶらりんのリンクだが、これは許容された状態なのだ
		Links: []Link{{SourceID: "water", TargetID: "cloud"}},
	}

	if !g.HasNode("water") {
		t.Error("water は存在するべきなのだ")
	}
	if g.HasNode("cloud") {
		t.Error("リンクに現れるだけではノードは存在しないのだ")
	}
}

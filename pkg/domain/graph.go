package domain

import (
	"fmt"
	"strings"
)

// Graph は概念グラフの永続部分（ノードとリンク）です。
// レイアウト座標はここには属しません。表示エンジン側の一時データなのだ。
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node は概念グラフの1ノードです。Group は色分類にのみ使う小さな整数です。
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group int    `json:"group"`
}

// Link はノード間の関係です。SourceID/TargetID は既存ノードを指すべきですが、
// 宙ぶらりんの参照（dangling link）も許容されます。描画されないだけでエラーではないのだ。
type Link struct {
	SourceID     string `json:"sourceId"`
	TargetID     string `json:"targetId"`
	Relationship string `json:"relationship"`
}

// HasNode は指定 ID のノードが存在するかを返します。
func (g Graph) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Clone はノード・リンクを複製した独立のグラフを返すのだ。
// 編集モードの下書き（scratch copy）を作るときに使うのだよ。
func (g Graph) Clone() Graph {
	clone := Graph{}
	if g.Nodes != nil {
		clone.Nodes = make([]Node, len(g.Nodes))
		copy(clone.Nodes, g.Nodes)
	}
	if g.Links != nil {
		clone.Links = make([]Link, len(g.Links))
		copy(clone.Links, g.Links)
	}
	return clone
}

// FreshNodeID は現在使われていない新しいノード ID を払い出します。
// 形式は "concept-N" で、未使用の最小の N を選びます。
func (g Graph) FreshNodeID() string {
	used := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		used[strings.TrimSpace(n.ID)] = struct{}{}
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("concept-%d", i)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

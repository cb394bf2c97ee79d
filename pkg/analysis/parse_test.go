package analysis

import (
	"strings"
	"testing"

	"github.com/shouni/go-lesson-kit/pkg/domain"
)

const validDocJSON = `{
	"summary": "水の循環の要約なのだ。",
	"comicPanels": [
		{"id": 1, "imagePrompt": "sun over ocean", "caption": "蒸発", "dialogue": ""},
		{"id": 2, "imagePrompt": "cloud forming", "caption": "凝結", "dialogue": ""},
		{"id": 3, "imagePrompt": "rain falling", "caption": "降水", "dialogue": ""},
		{"id": 4, "imagePrompt": "river to sea", "caption": "流出", "dialogue": ""}
	],
	"vocabulary": [
		{"word": "蒸発", "definition": "液体が気体になること", "example": "", "imagePrompt": "steam"}
	],
	"graph": {
		"nodes": [
			{"id": "water", "label": "水", "group": 1},
			{"id": "cloud", "label": "雲", "group": 1}
		],
		"links": [
			{"sourceId": "water", "targetId": "cloud", "relationship": "becomes"}
		]
	}
}`

func TestParseDocument(t *testing.T) {
	t.Run("コードフェンス付きの応答から抽出できるのだ", func(t *testing.T) {
		raw := "はい、構成案を考えたのだ！\n```json\n" + validDocJSON + "\n```\nどうでしょうなのだ？"
		doc, err := ParseDocument(raw)
		if err != nil {
			t.Fatalf("パース失敗なのだ: %v", err)
		}
		if len(doc.ComicPanels) != 4 {
			t.Errorf("コマ数が違うのだ: %d", len(doc.ComicPanels))
		}
		if doc.Graph.Nodes[1].Label != "雲" {
			t.Errorf("グラフが正しくパースされていないのだ: %+v", doc.Graph.Nodes)
		}
	})

	t.Run("フェンス無しでも最外の波括弧から抽出できるのだ", func(t *testing.T) {
		raw := "前置きテキスト " + validDocJSON + " 後置きテキスト"
		doc, err := ParseDocument(raw)
		if err != nil {
			t.Fatalf("パース失敗なのだ: %v", err)
		}
		if doc.Summary == "" {
			t.Error("summary が抽出されていないのだ")
		}
	})

	t.Run("純粋なJSONだけの応答もそのまま通るのだ", func(t *testing.T) {
		if _, err := ParseDocument(validDocJSON); err != nil {
			t.Fatalf("パース失敗なのだ: %v", err)
		}
	})

	t.Run("空の応答はエラーになるのだ", func(t *testing.T) {
		if _, err := ParseDocument("   \n  "); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})

	t.Run("JSONとして壊れた応答はエラーになるのだ", func(t *testing.T) {
		if _, err := ParseDocument("{invalid json!!"); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})
}

func TestValidateDocument(t *testing.T) {
	valid := func() *domain.Document {
		return &domain.Document{
			Summary: "要約",
			ComicPanels: []domain.Panel{
				{ID: 1, ImagePrompt: "p1"},
				{ID: 2, ImagePrompt: "p2"},
			},
			Vocabulary: []domain.VocabItem{{Word: "蒸発"}},
			Graph: domain.Graph{
				Nodes: []domain.Node{{ID: "water"}},
			},
		}
	}

	t.Run("正しいDocumentは検証を通るのだ", func(t *testing.T) {
		if err := ValidateDocument(valid()); err != nil {
			t.Fatalf("検証失敗なのだ: %v", err)
		}
	})

	t.Run("summary が空だと致命的エラーなのだ", func(t *testing.T) {
		doc := valid()
		doc.Summary = "  "
		if err := ValidateDocument(doc); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})

	t.Run("コマが1つも無いと致命的エラーなのだ", func(t *testing.T) {
		doc := valid()
		doc.ComicPanels = nil
		if err := ValidateDocument(doc); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})

	t.Run("パネルIDの重複は致命的エラーなのだ", func(t *testing.T) {
		doc := valid()
		doc.ComicPanels[1].ID = 1
		if err := ValidateDocument(doc); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})

	t.Run("imagePrompt が空のコマは致命的エラーなのだ", func(t *testing.T) {
		doc := valid()
		doc.ComicPanels[0].ImagePrompt = ""
		if err := ValidateDocument(doc); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})

	t.Run("ノードIDの重複は致命的エラーなのだ", func(t *testing.T) {
		doc := valid()
		doc.Graph.Nodes = append(doc.Graph.Nodes, domain.Node{ID: "water"})
		if err := ValidateDocument(doc); err == nil {
			t.Fatal("エラーになるべきなのだ")
		}
	})

	t.Run("宙ぶらりんのリンクは許容されるのだ", func(t *testing.T) {
		doc := valid()
		doc.Graph.Links = []domain.Link{{SourceID: "water", TargetID: "ghost"}}
		if err := ValidateDocument(doc); err != nil {
			t.Fatalf("宙ぶらりんのリンクはエラーにしないのだ: %v", err)
		}
	})
}

func TestTruncateString(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := truncateString(long, 200)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("切り詰めが正しくないのだ: len=%d", len(got))
	}
	if truncateString("short", 200) != "short" {
		t.Error("短い文字列はそのまま返すべきなのだ")
	}
}

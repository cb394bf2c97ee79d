package publisher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-lesson-kit/pkg/domain"
)

// notIllustrated は画像がまだ無い項目のプレースホルダー表記です。
const notIllustrated = "_（挿絵はまだ生成されていません）_"

var mermaidIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// BuildBundleMarkdown は学習バンドル全体を1枚の Markdown にまとめるのだ。
// panelPaths / vocabPaths は Document と同じ順序で、未生成の項目は空文字になる。
func BuildBundleMarkdown(doc *domain.Document, panelPaths, vocabPaths []string) string {
	var sb strings.Builder

	sb.WriteString("# 学習バンドル\n\n")

	// 1. 要約
	sb.WriteString("## 要約\n\n")
	sb.WriteString(strings.TrimSpace(doc.Summary))
	sb.WriteString("\n\n")

	// 2. 4コマ漫画（ページ順は解析時のまま）
	sb.WriteString("## コミック\n\n")
	for i, panel := range doc.ComicPanels {
		sb.WriteString(fmt.Sprintf("### コマ %d\n\n", panel.ID))
		if i < len(panelPaths) && panelPaths[i] != "" {
			sb.WriteString(fmt.Sprintf("![panel %d](%s)\n\n", panel.ID, panelPaths[i]))
		} else {
			sb.WriteString(notIllustrated + "\n\n")
		}
		if panel.Caption != "" {
			sb.WriteString(fmt.Sprintf("> %s\n\n", strings.TrimSpace(panel.Caption)))
		}
		if panel.Dialogue != "" {
			sb.WriteString(fmt.Sprintf("「%s」\n\n", strings.TrimSpace(panel.Dialogue)))
		}
	}

	// 3. 概念マップ（Mermaid）
	sb.WriteString("## 概念マップ\n\n")
	sb.WriteString(buildMermaid(doc.Graph))
	sb.WriteString("\n")

	// 4. 語彙セット
	sb.WriteString("## 語彙\n\n")
	for i, item := range doc.Vocabulary {
		sb.WriteString(fmt.Sprintf("### %s\n\n", item.Word))
		if i < len(vocabPaths) && vocabPaths[i] != "" {
			sb.WriteString(fmt.Sprintf("![%s](%s)\n\n", item.Word, vocabPaths[i]))
		} else {
			sb.WriteString(notIllustrated + "\n\n")
		}
		if item.Definition != "" {
			sb.WriteString(fmt.Sprintf("- 定義: %s\n", strings.TrimSpace(item.Definition)))
		}
		if item.Example != "" {
			sb.WriteString(fmt.Sprintf("- 例文: %s\n", strings.TrimSpace(item.Example)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// buildMermaid は概念グラフを Mermaid の flowchart として描画します。
// 宙ぶらりんのリンクもそのまま出力します（Mermaid 側が未定義ノードを補うため、
// クラッシュも欠落もしない）。
func buildMermaid(g domain.Graph) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\ngraph TD\n")
	for _, n := range g.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", mermaidID(n.ID), strings.ReplaceAll(label, `"`, "'")))
	}
	for _, l := range g.Links {
		if l.SourceID == "" || l.TargetID == "" {
			continue
		}
		if l.Relationship != "" {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n",
				mermaidID(l.SourceID), strings.ReplaceAll(l.Relationship, "|", "/"), mermaidID(l.TargetID)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(l.SourceID), mermaidID(l.TargetID)))
		}
	}
	sb.WriteString("```\n")
	return sb.String()
}

func mermaidID(id string) string {
	clean := mermaidIDSanitizer.ReplaceAllString(id, "_")
	if clean == "" {
		clean = "_"
	}
	return clean
}

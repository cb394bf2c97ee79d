package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-lesson-kit/pkg/domain"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ParseDocument は AI 応答のテキストから JSON を抽出して Document に変換し、
// スキーマを明示的に検証するのだ。暗黙の契約を信用してはいけないのだよ。
func ParseDocument(raw string) (*domain.Document, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("解析コラボレーターの応答が空です")
	}

	var rawJSON string
	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else {
		// Fallback 1: 最外の JSON オブジェクトを探す
		firstBracket := strings.Index(raw, "{")
		lastBracket := strings.LastIndex(raw, "}")
		if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
			rawJSON = raw[firstBracket : lastBracket+1]
		} else {
			// Fallback 2: 応答全体を JSON とみなす
			rawJSON = raw
		}
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(rawJSON), &doc); err != nil {
		return nil, fmt.Errorf("応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	if err := ValidateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValidateDocument は Document の応答スキーマに対する明示的な検証なのだ。
// 不一致は致命的エラーとして扱う。ただし宙ぶらりんのリンクは既知のエッジケースとして許容する。
func ValidateDocument(doc *domain.Document) error {
	if strings.TrimSpace(doc.Summary) == "" {
		return fmt.Errorf("スキーマ不一致: summary が空です")
	}
	if len(doc.ComicPanels) == 0 {
		return fmt.Errorf("スキーマ不一致: comicPanels が空です")
	}

	panelIDs := make(map[int]struct{}, len(doc.ComicPanels))
	for i, p := range doc.ComicPanels {
		if _, dup := panelIDs[p.ID]; dup {
			return fmt.Errorf("スキーマ不一致: パネルID %d が重複しています", p.ID)
		}
		panelIDs[p.ID] = struct{}{}
		if strings.TrimSpace(p.ImagePrompt) == "" {
			return fmt.Errorf("スキーマ不一致: パネル %d の imagePrompt が空です", i+1)
		}
	}

	for i, v := range doc.Vocabulary {
		if strings.TrimSpace(v.Word) == "" {
			return fmt.Errorf("スキーマ不一致: 語彙項目 %d の word が空です", i+1)
		}
	}

	nodeIDs := make(map[string]struct{}, len(doc.Graph.Nodes))
	for _, n := range doc.Graph.Nodes {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("スキーマ不一致: 空のノードIDが含まれています")
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return fmt.Errorf("スキーマ不一致: ノードID %q が重複しています", n.ID)
		}
		nodeIDs[n.ID] = struct{}{}
	}

	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

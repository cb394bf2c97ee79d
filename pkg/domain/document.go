package domain

import (
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// Document は1回の解析で得られる学習バンドル全体の集約なのだ。
// 解析フェーズで骨格（要約・コマ・語彙・グラフ）が一度だけ作られ、
// 以降は画像の到着やユーザー編集でフィールド単位に更新されるのだよ。
type Document struct {
	Summary     string      `json:"summary"`
	ComicPanels []Panel     `json:"comicPanels"`
	Vocabulary  []VocabItem `json:"vocabulary"`
	Graph       Graph       `json:"graph"`
}

// Panel は4コマ漫画の1コマ分の構成を保持します。
// ID と ImagePrompt は解析時に割り当てられ、以後変更されません。
type Panel struct {
	ID          int    `json:"id"`
	ImagePrompt string `json:"imagePrompt"`
	Caption     string `json:"caption"`
	Dialogue    string `json:"dialogue"`

	// Image は画像生成が成功するまで nil のままです。
	Image *imagedom.ImageResponse `json:"-"`
}

// VocabItem は語彙セットの1項目です。Word が表示キーになります。
type VocabItem struct {
	Word        string `json:"word"`
	Definition  string `json:"definition"`
	Example     string `json:"example"`
	ImagePrompt string `json:"imagePrompt"`

	Image *imagedom.ImageResponse `json:"-"`
}

// PanelPatch はユーザー編集可能なフィールドの差分なのだ。
// nil のフィールドは「変更なし」を意味するのだよ。
type PanelPatch struct {
	Caption  *string
	Dialogue *string
}

// PanelByID は ID に一致するパネルを返します。見つからない場合は nil を返します。
func (d *Document) PanelByID(id int) *Panel {
	for i := range d.ComicPanels {
		if d.ComicPanels[i].ID == id {
			return &d.ComicPanels[i]
		}
	}
	return nil
}

// ApplyPanelPatch は指定 ID のパネルに編集内容を適用するのだ。
// ID が存在しない場合は何も変更せず false を返す（部分更新は起きない）。
func (d *Document) ApplyPanelPatch(id int, patch PanelPatch) bool {
	panel := d.PanelByID(id)
	if panel == nil {
		return false
	}
	if patch.Caption != nil {
		panel.Caption = *patch.Caption
	}
	if patch.Dialogue != nil {
		panel.Dialogue = *patch.Dialogue
	}
	return true
}

// VocabByWord は Word に一致する語彙項目を返します。見つからない場合は nil を返します。
func (d *Document) VocabByWord(word string) *VocabItem {
	for i := range d.Vocabulary {
		if d.Vocabulary[i].Word == word {
			return &d.Vocabulary[i]
		}
	}
	return nil
}

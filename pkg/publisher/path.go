package publisher

import (
	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultBundleName は学習バンドルのデフォルト Markdown ファイル名です。
	DefaultBundleName = "lesson_bundle.md"
	// DefaultDocumentName は解析結果 Document のデフォルト JSON ファイル名です。
	DefaultDocumentName = "lesson_document.json"
	// DefaultImageDirName は生成された画像を格納するディレクトリ名です。
	DefaultImageDirName = "images"
	// DefaultPanelFileName はコマ画像の共通のベースファイル名です。
	DefaultPanelFileName = "panel.png"
	// DefaultVocabFileName は語彙挿絵の共通のベースファイル名です。
	DefaultVocabFileName = "vocab.png"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// GenerateIndexedPath は、ベースパスの拡張子の前に連番を挿入します。
// 例: "images/panel.png", 2 -> "images/panel_2.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

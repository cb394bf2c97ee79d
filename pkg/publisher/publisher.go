// Package publisher は、完成した学習バンドルを画像と Markdown として永続化します。
package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-lesson-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理で生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された lesson_bundle.md のパス
	ImagePaths   []string // 保存された全画像のパスリスト
}

// LessonPublisher は成果物の永続化を担うのだ。書き込み先はローカルでも GCS でもよい。
type LessonPublisher struct {
	writer remoteio.OutputWriter
}

// NewLessonPublisher は LessonPublisher を生成します。
func NewLessonPublisher(writer remoteio.OutputWriter) *LessonPublisher {
	return &LessonPublisher{writer: writer}
}

// Publish は画像の保存と Markdown の構築・書き出しを一括して実行するのだ。
// 未挿絵の項目はプレースホルダー表記のまま出力され、エラーにはならない。
func (p *LessonPublisher) Publish(ctx context.Context, doc *domain.Document, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if doc == nil {
		return result, fmt.Errorf("公開する Document がありません")
	}

	markdownPath, err := ResolveOutputPath(opts.OutputDir, DefaultBundleName)
	if err != nil {
		return result, err
	}
	result.MarkdownPath = markdownPath

	imgDir, err := ResolveOutputPath(opts.OutputDir, DefaultImageDirName)
	if err != nil {
		return result, err
	}

	// 1. コマ画像の保存（Document の順序のまま連番を振る）
	panelPaths, saved, err := p.saveImageSeries(ctx, imgDir, DefaultPanelFileName, len(doc.ComicPanels), func(i int) *bytesWithMime {
		if doc.ComicPanels[i].Image == nil {
			return nil
		}
		return &bytesWithMime{data: doc.ComicPanels[i].Image.Data, mime: doc.ComicPanels[i].Image.MimeType}
	})
	if err != nil {
		return result, err
	}
	result.ImagePaths = append(result.ImagePaths, saved...)

	// 2. 語彙挿絵の保存
	vocabPaths, saved, err := p.saveImageSeries(ctx, imgDir, DefaultVocabFileName, len(doc.Vocabulary), func(i int) *bytesWithMime {
		if doc.Vocabulary[i].Image == nil {
			return nil
		}
		return &bytesWithMime{data: doc.Vocabulary[i].Image.Data, mime: doc.Vocabulary[i].Image.MimeType}
	})
	if err != nil {
		return result, err
	}
	result.ImagePaths = append(result.ImagePaths, saved...)

	// 3. Markdown 用の相対パスに変換
	relPanelPaths := toRelativePaths(panelPaths)
	relVocabPaths := toRelativePaths(vocabPaths)

	// 4. Markdown の構築と書き出し
	content := BuildBundleMarkdown(doc, relPanelPaths, relVocabPaths)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("バンドルMarkdownの書き込みに失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "学習バンドルを保存したのだ",
		"markdown", markdownPath, "images", len(result.ImagePaths))
	return result, nil
}

type bytesWithMime struct {
	data []byte
	mime string
}

// saveImageSeries はベースファイル名に連番を振りながら画像列を保存します。
// 画像が無い項目はスキップされ、対応するパスは空文字のままになります。
func (p *LessonPublisher) saveImageSeries(ctx context.Context, imgDir, baseName string, count int, pick func(int) *bytesWithMime) ([]string, []string, error) {
	basePath, err := ResolveOutputPath(imgDir, baseName)
	if err != nil {
		return nil, nil, err
	}

	paths := make([]string, count)
	var saved []string
	for i := 0; i < count; i++ {
		img := pick(i)
		if img == nil || len(img.data) == 0 {
			continue
		}
		target, err := GenerateIndexedPath(basePath, i+1)
		if err != nil {
			return nil, nil, fmt.Errorf("画像 %d の出力パス生成に失敗しました: %w", i+1, err)
		}
		if err := p.writer.Write(ctx, target, bytes.NewReader(img.data), img.mime); err != nil {
			return nil, nil, fmt.Errorf("画像の書き込みに失敗しました (path: %s): %w", target, err)
		}
		paths[i] = target
		saved = append(saved, target)
	}
	return paths, saved, nil
}

// toRelativePaths は保存済みパスを Markdown から参照する相対パスへ変換します。
func toRelativePaths(absPaths []string) []string {
	rel := make([]string, len(absPaths))
	for i, p := range absPaths {
		if p == "" {
			continue
		}
		rel[i] = path.Join(DefaultImageDirName, filepath.Base(p))
	}
	return rel
}

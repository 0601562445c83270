package integrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/kerbaras/mangaread/pkg/data"
)

type EPubBuilder struct {
	outputDir string
}

func NewEPubBuilder(outputDir string) *EPubBuilder {
	return &EPubBuilder{outputDir: outputDir}
}

func (p *EPubBuilder) OutputDir() string { return p.outputDir }

// ExportChapter writes one chapter's pages, in reading order, to
// "<manga> - <chapter>.epub" in the output directory.
func (p *EPubBuilder) ExportChapter(manga *data.Manga, chapter *data.Chapter, pages []PageImage) (string, error) {
	if manga == nil || chapter == nil {
		return "", fmt.Errorf("manga and chapter are required")
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no pages to export")
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// go-epub reads images from disk, so stage the pages first
	staging, err := os.MkdirTemp(p.outputDir, ".pages-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := stagePages(staging, pages); err != nil {
		return "", err
	}

	e, err := epub.NewEpub(fmt.Sprintf("%s - %s", manga.Name, chapter.Label()))
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor(manga.Name)
	if manga.Description != "" {
		e.SetDescription(manga.Description)
	}
	lang := chapter.Language
	if lang == "" {
		lang = "en"
	}
	e.SetLang(lang)

	if err := addChapterToEPub(e, chapter, staging); err != nil {
		return "", fmt.Errorf("failed to add chapter %s: %w", chapter.Number, err)
	}

	outputPath := filepath.Join(p.outputDir, sanitizeFilename(fmt.Sprintf("%s - %s", manga.Name, chapter.Label()))+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}
	return outputPath, nil
}

func stagePages(dir string, pages []PageImage) error {
	for _, page := range pages {
		name := fmt.Sprintf("%04d%s", page.Index+1, page.Ext())
		if err := os.WriteFile(filepath.Join(dir, name), page.Content, 0644); err != nil {
			return fmt.Errorf("failed to stage page %d: %w", page.Index+1, err)
		}
	}
	return nil
}

// addChapterToEPub adds the images of dir, by file name, as one section.
func addChapterToEPub(e *epub.Epub, chapter *data.Chapter, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read chapter directory: %w", err)
	}

	var imageFiles []os.DirEntry
	for _, file := range files {
		if !file.IsDir() && isImageFile(file.Name()) {
			imageFiles = append(imageFiles, file)
		}
	}
	if len(imageFiles) == 0 {
		return fmt.Errorf("no images found in chapter directory")
	}
	sort.Slice(imageFiles, func(i, j int) bool {
		return imageFiles[i].Name() < imageFiles[j].Name()
	})

	title := chapter.Label()
	var html strings.Builder
	fmt.Fprintf(&html, "<h1>%s</h1>\n", title)

	for i, imgFile := range imageFiles {
		internalPath, err := e.AddImage(filepath.Join(dir, imgFile.Name()), "")
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", imgFile.Name(), err)
		}
		fmt.Fprintf(&html,
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>`+"\n",
			internalPath, i+1,
		)
	}

	if _, err := e.AddSection(html.String(), title, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}

func isImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".gif" || ext == ".webp"
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}

package data

import (
	"fmt"
	"time"
)

type Manga struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Source      string `json:"source,omitempty"`
	Status      string `json:"status,omitempty"` // "reading", "completed", "error"
}

type Chapter struct {
	ID         string   `json:"id"`
	MangaID    string   `json:"mangaId"`
	Title      string   `json:"title,omitempty"`
	Language   string   `json:"language,omitempty"`
	Volume     string   `json:"volume,omitempty"`
	Number     string   `json:"chapter"`
	Images     []string `json:"images"` // Page image URLs, in reading order
	Downloaded bool     `json:"-"`
	FilePath   string   `json:"-"` // Path to exported EPUB, if any
}

// TotalPages is the number of page images of the chapter.
func (c *Chapter) TotalPages() int {
	if c == nil {
		return 0
	}
	return len(c.Images)
}

// Label renders "Vol. 2, Ch. 11: Title" with the empty parts left out.
func (c *Chapter) Label() string {
	label := fmt.Sprintf("Ch. %s", c.Number)
	if c.Volume != "" && c.Volume != "0" {
		label = fmt.Sprintf("Vol. %s, %s", c.Volume, label)
	}
	if c.Title != "" {
		label = fmt.Sprintf("%s: %s", label, c.Title)
	}
	return label
}

// ReadingProgress is the last page a user reached in a chapter. Only one
// record exists per (user, manga, chapter); the last write wins.
type ReadingProgress struct {
	UserID     string    `json:"-"`
	MangaID    string    `json:"mangaId"`
	ChapterID  string    `json:"chapterId"`
	PageNumber int       `json:"pageNumber"`
	TotalPages int       `json:"totalPages"`
	Completed  bool      `json:"completed"`
	UpdatedAt  time.Time `json:"-"`
}

// NewReadingProgress builds a record with Completed derived from the page.
func NewReadingProgress(mangaID, chapterID string, page, total int) ReadingProgress {
	return ReadingProgress{
		MangaID:    mangaID,
		ChapterID:  chapterID,
		PageNumber: page,
		TotalPages: total,
		Completed:  page == total,
	}
}

// Validate checks the wire contract of a progress write.
func (p ReadingProgress) Validate() error {
	if p.MangaID == "" {
		return fmt.Errorf("mangaId is required")
	}
	if p.ChapterID == "" {
		return fmt.Errorf("chapterId is required")
	}
	if p.PageNumber < 1 {
		return fmt.Errorf("pageNumber must be >= 1, got %d", p.PageNumber)
	}
	if p.TotalPages < 0 {
		return fmt.Errorf("totalPages must be >= 0, got %d", p.TotalPages)
	}
	if p.Completed != (p.PageNumber == p.TotalPages) {
		return fmt.Errorf("completed must equal pageNumber == totalPages")
	}
	return nil
}

// ReaderPreferences are the reader settings that survive chapter changes.
type ReaderPreferences struct {
	ViewMode     string `json:"viewMode"`
	ZoomPercent  int    `json:"zoomPercent"`
	AutoProgress bool   `json:"autoProgress"`
}

func DefaultReaderPreferences() ReaderPreferences {
	return ReaderPreferences{ViewMode: "vertical", ZoomPercent: 100, AutoProgress: true}
}

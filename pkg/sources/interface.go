package sources

import (
	"context"

	"github.com/kerbaras/mangaread/pkg/data"
)

// Source is a catalog the library can add mangas from.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]data.Manga, error)
	GetManga(ctx context.Context, id string) (*data.Manga, error)
	// GetChapters returns the chapter list newest first, without page images.
	GetChapters(ctx context.Context, mangaID string) ([]*data.Chapter, error)
	// GetChapter returns one chapter with its page image URLs.
	GetChapter(ctx context.Context, chapterID string) (*data.Chapter, error)
}

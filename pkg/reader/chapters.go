package reader

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kerbaras/mangaread/pkg/data"
)

// ChapterProvider fetches chapters. GetChaptersForManga must return the
// list newest first (see data.SortChaptersDesc).
type ChapterProvider interface {
	GetChapter(ctx context.Context, chapterID string) (*data.Chapter, error)
	GetChaptersForManga(ctx context.Context, mangaID string) ([]*data.Chapter, error)
}

// Adjacency holds the chapters around the open one. Previous is the
// chronologically earlier chapter, Next the later one; either may be nil.
type Adjacency struct {
	Previous *data.Chapter
	Next     *data.Chapter
}

// ComputeAdjacency locates chapterID in a newest-first list. Index 0 is the
// newest chapter, so the earlier chapter sits at index+1 and the later one
// at index-1. An unknown chapter has no neighbours.
func ComputeAdjacency(chapters []*data.Chapter, chapterID string) Adjacency {
	index := -1
	for i, c := range chapters {
		if c != nil && c.ID == chapterID {
			index = i
			break
		}
	}
	if index < 0 {
		return Adjacency{}
	}

	var adj Adjacency
	if index < len(chapters)-1 {
		adj.Previous = chapters[index+1]
	}
	if index > 0 {
		adj.Next = chapters[index-1]
	}
	return adj
}

type ChapterListResolver struct {
	provider ChapterProvider
}

func NewChapterListResolver(provider ChapterProvider) *ChapterListResolver {
	return &ChapterListResolver{provider: provider}
}

// Resolve fetches the chapter list of mangaID and computes the adjacency of
// chapterID. On failure the adjacency is empty and the error is a
// *DataFetchError the caller may report; it is never fatal.
func (r *ChapterListResolver) Resolve(ctx context.Context, mangaID, chapterID string) (Adjacency, error) {
	if mangaID == "" || r.provider == nil {
		return Adjacency{}, nil
	}
	chapters, err := r.provider.GetChaptersForManga(ctx, mangaID)
	if err != nil {
		return Adjacency{}, &DataFetchError{Resource: "chapters", ID: mangaID, Err: err}
	}
	if len(chapters) == 0 {
		return Adjacency{}, nil
	}
	return ComputeAdjacency(chapters, chapterID), nil
}

// MangaPath is the route of a manga's detail screen. IDs are path escaped.
func MangaPath(mangaID string) string {
	return "/manga/" + url.PathEscape(mangaID)
}

// ChapterPath is the route of the reader for one chapter.
func ChapterPath(mangaID, chapterID string) string {
	return fmt.Sprintf("/manga/%s/chapter/%s", url.PathEscape(mangaID), url.PathEscape(chapterID))
}

const HomePath = "/"

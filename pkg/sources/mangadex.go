package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/utils"
)

const (
	MangaDexURL = "https://api.mangadex.org"
	// MangaDex caps feed pages at 500 entries.
	feedPageSize = 500
)

type Manga struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string `json:"title"`
		Description map[string]string `json:"description"`
	} `json:"attributes"`
}

func (m *Manga) ToManga() *data.Manga {
	name := m.Attributes.Title["en"]
	if name == "" {
		for _, title := range m.Attributes.Title {
			name = title
			break
		}
	}
	return &data.Manga{
		ID:          m.ID,
		Name:        name,
		Description: m.Attributes.Description["en"],
		Source:      "mangadex",
	}
}

type relationship struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Chapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Title    string `json:"title"`
		Language string `json:"translatedLanguage"`
		Volume   string `json:"volume"`
		Number   string `json:"chapter"`
		Pages    int    `json:"pages"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

func (c *Chapter) ToChapter() *data.Chapter {
	chapter := &data.Chapter{
		ID:       c.ID,
		Title:    c.Attributes.Title,
		Language: c.Attributes.Language,
		Volume:   c.Attributes.Volume,
		Number:   c.Attributes.Number,
	}
	for _, rel := range c.Relationships {
		if rel.Type == "manga" {
			chapter.MangaID = rel.ID
		}
	}
	return chapter
}

type MangaDex struct {
	api      *utils.API
	language string
}

func NewMangaDex(opts ...utils.Option) *MangaDex {
	return NewMangaDexAt(MangaDexURL, opts...)
}

// NewMangaDexAt points the client at another base URL (mirrors, tests).
func NewMangaDexAt(baseURL string, opts ...utils.Option) *MangaDex {
	return &MangaDex{api: utils.NewAPI(baseURL, opts...), language: "en"}
}

func (m *MangaDex) Name() string { return "mangadex" }

func (m *MangaDex) Search(ctx context.Context, query string) ([]data.Manga, error) {
	var mangas struct {
		Data []Manga `json:"data"`
	}
	if err := m.api.Get(ctx, "/manga", url.Values{"title": {query}}, &mangas); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	out := make([]data.Manga, len(mangas.Data))
	for i, manga := range mangas.Data {
		out[i] = *manga.ToManga()
	}
	return out, nil
}

func (m *MangaDex) GetManga(ctx context.Context, id string) (*data.Manga, error) {
	var manga struct {
		Data Manga `json:"data"`
	}
	if err := m.api.Get(ctx, "/manga/"+url.PathEscape(id), nil, &manga); err != nil {
		return nil, fmt.Errorf("get manga %s: %w", id, err)
	}
	return manga.Data.ToManga(), nil
}

// GetChapters walks the whole feed and returns it newest first.
func (m *MangaDex) GetChapters(ctx context.Context, mangaID string) ([]*data.Chapter, error) {
	var out []*data.Chapter
	for offset := 0; ; offset += feedPageSize {
		params := url.Values{
			"translatedLanguage[]": {m.language},
			"order[chapter]":       {"desc"},
			"limit":                {strconv.Itoa(feedPageSize)},
			"offset":               {strconv.Itoa(offset)},
		}
		var feed struct {
			Data  []Chapter `json:"data"`
			Total int       `json:"total"`
		}
		if err := m.api.Get(ctx, "/manga/"+url.PathEscape(mangaID)+"/feed", params, &feed); err != nil {
			return nil, fmt.Errorf("get chapters of %s: %w", mangaID, err)
		}
		for i := range feed.Data {
			chapter := feed.Data[i].ToChapter()
			if chapter.MangaID == "" {
				chapter.MangaID = mangaID
			}
			out = append(out, chapter)
		}
		if len(feed.Data) == 0 || offset+len(feed.Data) >= feed.Total {
			break
		}
	}
	data.SortChaptersDesc(out)
	return out, nil
}

func (m *MangaDex) GetChapter(ctx context.Context, chapterID string) (*data.Chapter, error) {
	var resp struct {
		Data Chapter `json:"data"`
	}
	if err := m.api.Get(ctx, "/chapter/"+url.PathEscape(chapterID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get chapter %s: %w", chapterID, err)
	}
	chapter := resp.Data.ToChapter()

	pages, err := m.GetPages(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	chapter.Images = pages
	return chapter, nil
}

// GetPages resolves the at-home server URLs of a chapter's page images.
func (m *MangaDex) GetPages(ctx context.Context, chapterID string) ([]string, error) {
	var server struct {
		BaseURL string `json:"baseUrl"`
		Chapter struct {
			Hash string   `json:"hash"`
			Data []string `json:"data"`
		} `json:"chapter"`
	}
	if err := m.api.Get(ctx, "/at-home/server/"+url.PathEscape(chapterID), nil, &server); err != nil {
		return nil, fmt.Errorf("get pages of %s: %w", chapterID, err)
	}
	pages := make([]string, len(server.Chapter.Data))
	for i, file := range server.Chapter.Data {
		pages[i] = fmt.Sprintf("%s/data/%s/%s", server.BaseURL, server.Chapter.Hash, file)
	}
	return pages, nil
}

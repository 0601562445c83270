package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/kerbaras/mangaread/pkg/sources"
	"github.com/rs/zerolog"
)

// Repository is the part of data.Repository the library needs.
type Repository interface {
	SaveManga(manga *data.Manga) error
	GetManga(id string) (*data.Manga, error)
	ListMangas() ([]*data.Manga, error)
	DeleteManga(mangaID string) error
	SaveChapter(chapter *data.Chapter) error
	GetChapter(id string) (*data.Chapter, error)
	GetChapters(mangaID string) ([]*data.Chapter, error)
	UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error
	GetMangaWithChapterCount(mangaID string) (*data.Manga, int, int, error)
	SaveProgress(p data.ReadingProgress) error
	GetProgress(userID, mangaID, chapterID string) (*data.ReadingProgress, error)
	ListProgress(userID, mangaID string) ([]data.ReadingProgress, error)
	SavePreferences(userID string, prefs data.ReaderPreferences) error
	GetPreferences(userID string) (*data.ReaderPreferences, error)
}

// Library is the local catalog: mangas added from a source, cached chapter
// lists and page URLs, and one user's reading progress. It is the reader's
// chapter provider, progress recorder and resume source in local mode.
type Library struct {
	source sources.Source
	repo   Repository
	userID string
	logger zerolog.Logger
	now    func() time.Time
}

func NewLibrary(source sources.Source, repo Repository, userID string, logger zerolog.Logger) *Library {
	return &Library{source: source, repo: repo, userID: userID, logger: logger, now: time.Now}
}

func (l *Library) UserID() string { return l.userID }

// ForUser is the same library recording progress for another user.
func (l *Library) ForUser(userID string) *Library {
	clone := *l
	clone.userID = userID
	return &clone
}

func (l *Library) Search(ctx context.Context, query string) ([]data.Manga, error) {
	if l.source == nil {
		return nil, errors.New("no source configured")
	}
	return l.source.Search(ctx, query)
}

// AddManga stores a manga and its chapter list.
func (l *Library) AddManga(ctx context.Context, mangaID string) (*data.Manga, []*data.Chapter, error) {
	if l.source == nil {
		return nil, nil, errors.New("no source configured")
	}
	manga, err := l.source.GetManga(ctx, mangaID)
	if err != nil {
		return nil, nil, err
	}
	manga.Status = "reading"
	if err := l.repo.SaveManga(manga); err != nil {
		return nil, nil, fmt.Errorf("failed to save manga: %w", err)
	}

	chapters, err := l.GetChaptersForManga(ctx, mangaID)
	if err != nil {
		return manga, nil, err
	}
	l.logger.Info().Str("manga", mangaID).Int("chapters", len(chapters)).Msg("manga added")
	return manga, chapters, nil
}

func (l *Library) GetManga(_ context.Context, mangaID string) (*data.Manga, error) {
	return l.repo.GetManga(mangaID)
}

func (l *Library) RemoveManga(mangaID string) error {
	return l.repo.DeleteManga(mangaID)
}

// GetChaptersForManga refreshes the chapter list from the source and falls
// back to the cached list when the source is unreachable. The list is
// newest first.
func (l *Library) GetChaptersForManga(ctx context.Context, mangaID string) ([]*data.Chapter, error) {
	cached, err := l.repo.GetChapters(mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapters: %w", err)
	}
	if l.source == nil {
		return cached, nil
	}

	fresh, err := l.source.GetChapters(ctx, mangaID)
	if err != nil {
		if len(cached) > 0 {
			l.logger.Warn().Err(err).Str("manga", mangaID).Msg("using cached chapter list")
			return cached, nil
		}
		return nil, err
	}

	known := make(map[string]*data.Chapter, len(cached))
	for _, c := range cached {
		known[c.ID] = c
	}
	for _, c := range fresh {
		if old, ok := known[c.ID]; ok {
			c.Images = old.Images
			c.Downloaded = old.Downloaded
			c.FilePath = old.FilePath
		}
		if c.MangaID == "" {
			c.MangaID = mangaID
		}
		if err := l.repo.SaveChapter(c); err != nil {
			return nil, fmt.Errorf("failed to save chapter %s: %w", c.ID, err)
		}
	}
	data.SortChaptersDesc(fresh)
	return fresh, nil
}

// GetChapter returns a chapter with its page URLs, fetching them from the
// source the first time. It returns nil, nil for unknown chapters.
func (l *Library) GetChapter(ctx context.Context, chapterID string) (*data.Chapter, error) {
	cached, err := l.repo.GetChapter(chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter: %w", err)
	}
	if (cached != nil && len(cached.Images) > 0) || l.source == nil {
		return cached, nil
	}

	fresh, err := l.source.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		fresh.Downloaded = cached.Downloaded
		fresh.FilePath = cached.FilePath
		if fresh.MangaID == "" {
			fresh.MangaID = cached.MangaID
		}
	}
	if err := l.repo.SaveChapter(fresh); err != nil {
		return nil, fmt.Errorf("failed to save chapter: %w", err)
	}
	return fresh, nil
}

// RecordProgress stores the record for the library's user.
func (l *Library) RecordProgress(_ context.Context, record data.ReadingProgress) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.UserID = l.userID
	record.UpdatedAt = l.now()
	return l.repo.SaveProgress(record)
}

func (l *Library) GetProgress(_ context.Context, mangaID, chapterID string) (*data.ReadingProgress, error) {
	return l.repo.GetProgress(l.userID, mangaID, chapterID)
}

// ChapterProgress maps chapter id to the user's record for every chapter of
// the manga they have opened.
func (l *Library) ChapterProgress(mangaID string) (map[string]data.ReadingProgress, error) {
	records, err := l.repo.ListProgress(l.userID, mangaID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]data.ReadingProgress, len(records))
	for _, r := range records {
		out[r.ChapterID] = r
	}
	return out, nil
}

// Preferences returns the stored reader preferences, or fallback.
func (l *Library) Preferences(fallback data.ReaderPreferences) data.ReaderPreferences {
	prefs, err := l.repo.GetPreferences(l.userID)
	if err != nil || prefs == nil {
		return fallback
	}
	return *prefs
}

func (l *Library) SavePreferences(prefs data.ReaderPreferences) error {
	return l.repo.SavePreferences(l.userID, prefs)
}

// Summary is a library row: a manga with its chapter counts and where the
// user stopped reading.
type Summary struct {
	Manga         *data.Manga
	ChapterCount  int
	ExportedCount int
	ReadCount     int
	Last          *data.ReadingProgress
	LastLabel     string
}

func (l *Library) Summaries() ([]Summary, error) {
	mangas, err := l.repo.ListMangas()
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(mangas))
	for _, manga := range mangas {
		_, total, exported, err := l.repo.GetMangaWithChapterCount(manga.ID)
		if err != nil {
			return nil, err
		}
		progress, err := l.repo.ListProgress(l.userID, manga.ID)
		if err != nil {
			return nil, err
		}
		s := Summary{Manga: manga, ChapterCount: total, ExportedCount: exported}
		for i := range progress {
			if progress[i].Completed {
				s.ReadCount++
			}
			if s.Last == nil || progress[i].UpdatedAt.After(s.Last.UpdatedAt) {
				s.Last = &progress[i]
			}
		}
		if s.Last != nil {
			s.LastLabel = s.Last.ChapterID
			if chapter, err := l.repo.GetChapter(s.Last.ChapterID); err == nil && chapter != nil {
				s.LastLabel = chapter.Label()
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// ExportChapter downloads a chapter's pages and writes them to an EPUB.
// progress may be nil.
func (l *Library) ExportChapter(ctx context.Context, chapterID string, downloader *Downloader, builder *integrations.EPubBuilder, progress ProgressFunc) (string, error) {
	chapter, err := l.GetChapter(ctx, chapterID)
	if err != nil {
		return "", err
	}
	if chapter == nil {
		return "", fmt.Errorf("chapter %s not found", chapterID)
	}
	manga, err := l.repo.GetManga(chapter.MangaID)
	if err != nil {
		return "", err
	}
	if manga == nil {
		manga = &data.Manga{ID: chapter.MangaID, Name: chapter.MangaID}
	}

	pages, err := downloader.FetchAll(ctx, chapter.ID, chapter.Images, progress)
	if err != nil {
		return "", err
	}
	path, err := builder.ExportChapter(manga, chapter, pages)
	if err != nil {
		return "", err
	}

	if err := l.repo.UpdateChapterStatus(chapter.ID, true, path); err != nil {
		return "", fmt.Errorf("failed to update chapter status: %w", err)
	}
	l.logger.Info().Str("chapter", chapter.ID).Str("path", path).Msg("chapter exported")
	return path, nil
}

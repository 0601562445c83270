package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS mangas (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		description VARCHAR,
		cover_url VARCHAR,
		source VARCHAR,
		status VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		id VARCHAR PRIMARY KEY,
		manga_id VARCHAR NOT NULL,
		title VARCHAR,
		language VARCHAR,
		volume VARCHAR,
		number VARCHAR,
		images VARCHAR,
		downloaded BOOLEAN DEFAULT false,
		file_path VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS reading_progress (
		user_id VARCHAR NOT NULL,
		manga_id VARCHAR NOT NULL,
		chapter_id VARCHAR NOT NULL,
		page_number INTEGER NOT NULL,
		total_pages INTEGER NOT NULL,
		completed BOOLEAN NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, manga_id, chapter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reader_preferences (
		user_id VARCHAR PRIMARY KEY,
		view_mode VARCHAR NOT NULL,
		zoom_percent INTEGER NOT NULL,
		auto_progress BOOLEAN NOT NULL
	)`,
}

// InitDuckDB opens (creating if needed) the database at path and applies
// the schema.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return db, nil
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenRepository is InitDuckDB plus NewRepository.
func OpenRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) SaveManga(manga *Manga) error {
	_, err := r.db.Exec(`
		INSERT INTO mangas (id, name, description, cover_url, source, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			cover_url = excluded.cover_url,
			source = excluded.source,
			status = excluded.status`,
		manga.ID, manga.Name, manga.Description, manga.CoverURL, manga.Source, manga.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to save manga %s: %w", manga.ID, err)
	}
	return nil
}

// GetManga returns nil without error when the manga is unknown.
func (r *Repository) GetManga(id string) (*Manga, error) {
	var m Manga
	var desc, cover, source, status sql.NullString
	err := r.db.QueryRow(
		`SELECT id, name, description, cover_url, source, status FROM mangas WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &desc, &cover, &source, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manga %s: %w", id, err)
	}
	m.Description = desc.String
	m.CoverURL = cover.String
	m.Source = source.String
	m.Status = status.String
	return &m, nil
}

func (r *Repository) ListMangas() ([]*Manga, error) {
	rows, err := r.db.Query(`SELECT id, name, description, cover_url, source, status FROM mangas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mangas: %w", err)
	}
	defer rows.Close()

	var mangas []*Manga
	for rows.Next() {
		var m Manga
		var desc, cover, source, status sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &desc, &cover, &source, &status); err != nil {
			return nil, err
		}
		m.Description = desc.String
		m.CoverURL = cover.String
		m.Source = source.String
		m.Status = status.String
		mangas = append(mangas, &m)
	}
	return mangas, rows.Err()
}

func (r *Repository) DeleteManga(mangaID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM reading_progress WHERE manga_id = ?`,
		`DELETE FROM chapters WHERE manga_id = ?`,
		`DELETE FROM mangas WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, mangaID); err != nil {
			return fmt.Errorf("failed to delete manga %s: %w", mangaID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) SaveChapter(chapter *Chapter) error {
	images, err := json.Marshal(chapter.Images)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO chapters (id, manga_id, title, language, volume, number, images, downloaded, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			manga_id = excluded.manga_id,
			title = excluded.title,
			language = excluded.language,
			volume = excluded.volume,
			number = excluded.number,
			images = excluded.images,
			downloaded = excluded.downloaded,
			file_path = excluded.file_path`,
		chapter.ID, chapter.MangaID, chapter.Title, chapter.Language, chapter.Volume,
		chapter.Number, string(images), chapter.Downloaded, chapter.FilePath,
	)
	if err != nil {
		return fmt.Errorf("failed to save chapter %s: %w", chapter.ID, err)
	}
	return nil
}

const chapterColumns = `id, manga_id, title, language, volume, number, images, downloaded, file_path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChapter(row rowScanner) (*Chapter, error) {
	var c Chapter
	var title, lang, volume, number, images, filePath sql.NullString
	var downloaded sql.NullBool
	if err := row.Scan(&c.ID, &c.MangaID, &title, &lang, &volume, &number, &images, &downloaded, &filePath); err != nil {
		return nil, err
	}
	c.Title = title.String
	c.Language = lang.String
	c.Volume = volume.String
	c.Number = number.String
	c.Downloaded = downloaded.Bool
	c.FilePath = filePath.String
	if images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &c.Images); err != nil {
			return nil, fmt.Errorf("corrupt image list for chapter %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

// GetChapter returns nil without error when the chapter is unknown.
func (r *Repository) GetChapter(id string) (*Chapter, error) {
	c, err := scanChapter(r.db.QueryRow(`SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter %s: %w", id, err)
	}
	return c, nil
}

// GetChapters returns the chapters of a manga, newest first.
func (r *Repository) GetChapters(mangaID string) ([]*Chapter, error) {
	rows, err := r.db.Query(`SELECT `+chapterColumns+` FROM chapters WHERE manga_id = ?`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapters for %s: %w", mangaID, err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	SortChaptersDesc(chapters)
	return chapters, nil
}

func (r *Repository) UpdateChapterStatus(chapterID string, downloaded bool, filePath string) error {
	_, err := r.db.Exec(`UPDATE chapters SET downloaded = ?, file_path = ? WHERE id = ?`, downloaded, filePath, chapterID)
	return err
}

// GetMangaWithChapterCount returns the manga with its total and exported
// chapter counts.
func (r *Repository) GetMangaWithChapterCount(mangaID string) (*Manga, int, int, error) {
	manga, err := r.GetManga(mangaID)
	if err != nil || manga == nil {
		return manga, 0, 0, err
	}

	var total, exported int
	err = r.db.QueryRow(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE downloaded)
		FROM chapters WHERE manga_id = ?`,
		mangaID,
	).Scan(&total, &exported)
	if err != nil {
		return nil, 0, 0, err
	}
	return manga, total, exported, nil
}

// SaveProgress upserts the record for (user, manga, chapter).
func (r *Repository) SaveProgress(p ReadingProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(`
		INSERT INTO reading_progress (user_id, manga_id, chapter_id, page_number, total_pages, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, manga_id, chapter_id) DO UPDATE SET
			page_number = excluded.page_number,
			total_pages = excluded.total_pages,
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		p.UserID, p.MangaID, p.ChapterID, p.PageNumber, p.TotalPages, p.Completed, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress for chapter %s: %w", p.ChapterID, err)
	}
	return nil
}

// GetProgress returns nil without error when nothing was recorded.
func (r *Repository) GetProgress(userID, mangaID, chapterID string) (*ReadingProgress, error) {
	p := ReadingProgress{UserID: userID, MangaID: mangaID, ChapterID: chapterID}
	err := r.db.QueryRow(`
		SELECT page_number, total_pages, completed, updated_at
		FROM reading_progress
		WHERE user_id = ? AND manga_id = ? AND chapter_id = ?`,
		userID, mangaID, chapterID,
	).Scan(&p.PageNumber, &p.TotalPages, &p.Completed, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for chapter %s: %w", chapterID, err)
	}
	return &p, nil
}

// ListProgress returns every record of a user for one manga, most recent first.
func (r *Repository) ListProgress(userID, mangaID string) ([]ReadingProgress, error) {
	rows, err := r.db.Query(`
		SELECT chapter_id, page_number, total_pages, completed, updated_at
		FROM reading_progress
		WHERE user_id = ? AND manga_id = ?
		ORDER BY updated_at DESC`,
		userID, mangaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for %s: %w", mangaID, err)
	}
	defer rows.Close()

	var out []ReadingProgress
	for rows.Next() {
		p := ReadingProgress{UserID: userID, MangaID: mangaID}
		if err := rows.Scan(&p.ChapterID, &p.PageNumber, &p.TotalPages, &p.Completed, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) SavePreferences(userID string, prefs ReaderPreferences) error {
	_, err := r.db.Exec(`
		INSERT INTO reader_preferences (user_id, view_mode, zoom_percent, auto_progress)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			view_mode = excluded.view_mode,
			zoom_percent = excluded.zoom_percent,
			auto_progress = excluded.auto_progress`,
		userID, prefs.ViewMode, prefs.ZoomPercent, prefs.AutoProgress,
	)
	return err
}

// GetPreferences returns nil without error when the user has none stored.
func (r *Repository) GetPreferences(userID string) (*ReaderPreferences, error) {
	var prefs ReaderPreferences
	err := r.db.QueryRow(
		`SELECT view_mode, zoom_percent, auto_progress FROM reader_preferences WHERE user_id = ?`, userID,
	).Scan(&prefs.ViewMode, &prefs.ZoomPercent, &prefs.AutoProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/utils"
)

// Remote talks to a mangaread server (the serve command). It serves the
// reader both as chapter provider and as progress recorder.
type Remote struct {
	api *utils.API
}

func NewRemote(baseURL, token string, opts ...utils.Option) *Remote {
	opts = append([]utils.Option{utils.WithToken(token)}, opts...)
	return &Remote{api: utils.NewAPI(baseURL, opts...)}
}

func (r *Remote) GetChapter(ctx context.Context, id string) (*data.Chapter, error) {
	var chapter data.Chapter
	if err := r.api.Get(ctx, "/api/v1/chapters/"+url.PathEscape(id), nil, &chapter); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &chapter, nil
}

func (r *Remote) GetChaptersForManga(ctx context.Context, mangaID string) ([]*data.Chapter, error) {
	var resp struct {
		Chapters []*data.Chapter `json:"chapters"`
	}
	if err := r.api.Get(ctx, "/api/v1/mangas/"+url.PathEscape(mangaID)+"/chapters", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chapters, nil
}

// RecordProgress upserts the record for the token's user.
func (r *Remote) RecordProgress(ctx context.Context, record data.ReadingProgress) error {
	if err := r.api.Put(ctx, "/api/v1/progress", record, nil); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

// GetProgress returns nil when nothing was recorded yet.
func (r *Remote) GetProgress(ctx context.Context, mangaID, chapterID string) (*data.ReadingProgress, error) {
	var record data.ReadingProgress
	path := fmt.Sprintf("/api/v1/progress/%s/%s", url.PathEscape(mangaID), url.PathEscape(chapterID))
	if err := r.api.Get(ctx, path, nil, &record); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func isNotFound(err error) bool {
	var httpErr *utils.HTTPError
	return errors.As(err, &httpErr) && httpErr.NotFound()
}

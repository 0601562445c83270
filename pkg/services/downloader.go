package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/rs/zerolog"
)

const (
	// DefaultPageInterval spaces out page requests (5 req/sec).
	DefaultPageInterval = 200 * time.Millisecond
	DefaultConcurrency  = 3
	pageTimeout         = 30 * time.Second
)

// PageResult is the outcome of fetching one page image.
type PageResult struct {
	ChapterID string
	Page      int // 1-based
	URL       string
	Image     integrations.PageImage
	Width     int
	Height    int
	Err       error
}

// Downloader fetches page images with bounded concurrency and a shared
// rate limit.
type Downloader struct {
	client      *http.Client
	rateLimiter *time.Ticker
	concurrency int
	logger      zerolog.Logger
	closeOnce   sync.Once
}

type DownloaderOption func(*Downloader)

func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = client }
}

func WithConcurrency(n int) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func WithLogger(logger zerolog.Logger) DownloaderOption {
	return func(d *Downloader) { d.logger = logger }
}

// NewDownloader creates a Downloader issuing at most one request per interval.
func NewDownloader(interval time.Duration, opts ...DownloaderOption) *Downloader {
	if interval <= 0 {
		interval = DefaultPageInterval
	}
	d := &Downloader{
		client:      &http.Client{Timeout: pageTimeout},
		rateLimiter: time.NewTicker(interval),
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads the pages of a chapter and streams one result per page
// on the returned channel, which is closed once every page is done or ctx
// is cancelled. Results arrive in completion order.
func (d *Downloader) Fetch(ctx context.Context, chapterID string, urls []string) <-chan PageResult {
	results := make(chan PageResult, len(urls))

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, d.concurrency)

		for i, url := range urls {
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return
			}

			wg.Add(1)
			go func(page int, url string) {
				defer wg.Done()
				defer func() { <-semaphore }()

				result := PageResult{ChapterID: chapterID, Page: page, URL: url}
				result.Image, result.Err = d.fetchPage(ctx, url, page-1)
				if result.Err == nil {
					result.Width, result.Height, result.Err = result.Image.Dimensions()
				}
				if result.Err != nil {
					d.logger.Warn().Err(result.Err).Str("chapter", chapterID).Int("page", page).Msg("page fetch failed")
				}

				select {
				case results <- result:
				case <-ctx.Done():
				}
			}(i+1, url)
		}
		wg.Wait()
	}()

	return results
}

// ProgressFunc is told how many of a chapter's pages are done.
type ProgressFunc func(done, total int)

// FetchAll downloads every page and returns them in reading order. It fails
// on the first broken page. progress may be nil.
func (d *Downloader) FetchAll(ctx context.Context, chapterID string, urls []string, progress ProgressFunc) ([]integrations.PageImage, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no pages found for chapter")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages := make([]integrations.PageImage, len(urls))
	done := 0
	for result := range d.Fetch(ctx, chapterID, urls) {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to download page %d: %w", result.Page, result.Err)
		}
		pages[result.Page-1] = result.Image
		done++
		if progress != nil {
			progress(done, len(urls))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

// fetchPage downloads a single image and returns its data
func (d *Downloader) fetchPage(ctx context.Context, url string, index int) (integrations.PageImage, error) {
	select {
	case <-d.rateLimiter.C:
	case <-ctx.Done():
		return integrations.PageImage{}, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return integrations.PageImage{}, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return integrations.PageImage{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return integrations.PageImage{}, fmt.Errorf("bad status: %s", resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return integrations.PageImage{}, fmt.Errorf("failed to read image content: %w", err)
	}

	return integrations.PageImage{
		Index:       index,
		Content:     content,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Close stops the rate limiter. Fetches in flight afterwards block until
// their context ends.
func (d *Downloader) Close() {
	d.closeOnce.Do(d.rateLimiter.Stop)
}

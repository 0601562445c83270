package reader

import "fmt"

// DataFetchError is returned when the chapter or the chapter list could not
// be fetched. The session degrades to an error state; it never panics.
type DataFetchError struct {
	Resource string // "chapter" or "chapters"
	ID       string
	Err      error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s %s: %v", e.Resource, e.ID, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// ProgressSyncError wraps a failed progress write. It is surfaced once as a
// warning and never retried.
type ProgressSyncError struct {
	ChapterID string
	Page      int
	Err       error
}

func (e *ProgressSyncError) Error() string {
	return fmt.Sprintf("could not save progress (page %d): %v", e.Page, e.Err)
}

func (e *ProgressSyncError) Unwrap() error { return e.Err }

// InvalidPageInputError describes manual page input that was ignored.
type InvalidPageInputError struct {
	Input  string
	Reason string
}

func (e *InvalidPageInputError) Error() string {
	return fmt.Sprintf("invalid page %q: %s", e.Input, e.Reason)
}

// ImageLoadError marks a single page whose image could not be loaded.
type ImageLoadError struct {
	Page int
	URL  string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("page %d failed to load: %v", e.Page, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

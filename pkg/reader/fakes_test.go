package reader

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/data"
)

type fakeProvider struct {
	chapters   map[string]*data.Chapter
	lists      map[string][]*data.Chapter
	chapterErr error
	listErr    error
}

func (f *fakeProvider) GetChapter(_ context.Context, id string) (*data.Chapter, error) {
	if f.chapterErr != nil {
		return nil, f.chapterErr
	}
	return f.chapters[id], nil
}

func (f *fakeProvider) GetChaptersForManga(_ context.Context, mangaID string) ([]*data.Chapter, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lists[mangaID], nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []data.ReadingProgress
	err     error
}

func (f *fakeRecorder) RecordProgress(_ context.Context, record data.ReadingProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return f.err
}

func (f *fakeRecorder) calls() []data.ReadingProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]data.ReadingProgress(nil), f.records...)
}

type fakeAuth bool

func (a fakeAuth) IsAuthenticated() bool { return bool(a) }

type fakeRouter struct {
	paths []string
}

func (r *fakeRouter) Navigate(path string) { r.paths = append(r.paths, path) }

type fakeNotifier struct {
	warnings []string
}

func (n *fakeNotifier) Warn(message string) { n.warnings = append(n.warnings, message) }

type fakeResume struct {
	progress *data.ReadingProgress
}

func (f fakeResume) GetProgress(context.Context, string, string) (*data.ReadingProgress, error) {
	return f.progress, nil
}

func pages(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://img.example/%d.jpg", i+1)
	}
	return out
}

// descending list c5, c4, c3 of manga m1
func testLibrary(pageCount int) *fakeProvider {
	c5 := &data.Chapter{ID: "c5", MangaID: "m1", Number: "5", Images: pages(pageCount)}
	c4 := &data.Chapter{ID: "c4", MangaID: "m1", Number: "4", Images: pages(pageCount)}
	c3 := &data.Chapter{ID: "c3", MangaID: "m1", Number: "3", Images: pages(pageCount)}
	return &fakeProvider{
		chapters: map[string]*data.Chapter{"c5": c5, "c4": c4, "c3": c3},
		lists:    map[string][]*data.Chapter{"m1": {c5, c4, c3}},
	}
}

type harness struct {
	session  *Session
	recorder *fakeRecorder
	router   *fakeRouter
	notifier *fakeNotifier
	clock    time.Time
}

type harnessOption func(*Config)

func withAuth(ok bool) harnessOption {
	return func(c *Config) { c.Auth = fakeAuth(ok) }
}

func withMode(mode ViewMode) harnessOption {
	return func(c *Config) { c.Preferences.ViewMode = mode }
}

func withProvider(p *fakeProvider) harnessOption {
	return func(c *Config) { c.Provider = p }
}

// openSession builds a session and runs its load cycle synchronously,
// without the controls countdown.
func openSession(t *testing.T, chapterID string, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		recorder: &fakeRecorder{},
		router:   &fakeRouter{},
		notifier: &fakeNotifier{},
		clock:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	cfg := Config{
		MangaID:     "m1",
		ChapterID:   chapterID,
		Preferences: DefaultPreferences(),
		Provider:    testLibrary(10),
		Recorder:    h.recorder,
		Router:      h.router,
		Auth:        fakeAuth(true),
		Notifier:    h.notifier,
		Now:         func() time.Time { return h.clock },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h.session = NewSession(cfg)
	h.run(h.session.Load())
	return h
}

// run executes cmd and feeds the resulting messages back into the session.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			h.run(c)
		}
		return
	}
	if msg != nil {
		h.run(h.session.Update(msg))
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

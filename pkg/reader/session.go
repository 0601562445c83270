// Package reader drives an open chapter: page and chapter navigation, the
// current page while scrolling, progress syncing and the transient reader
// chrome. All state changes happen on the bubbletea event loop; fetches,
// writes and countdowns come back as messages tagged with the session id.
package reader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/rs/zerolog"
)

// FetchTimeout bounds chapter and chapter list fetches.
const FetchTimeout = 10 * time.Second

// Router performs route changes (chapter to chapter, back to the manga).
type Router interface {
	Navigate(path string)
}

// Notifier shows non-fatal problems to the user.
type Notifier interface {
	Warn(message string)
}

// ProgressSource is used to resume a chapter at the last recorded page.
type ProgressSource interface {
	GetProgress(ctx context.Context, mangaID, chapterID string) (*data.ReadingProgress, error)
}

type State int

const (
	StateLoading State = iota
	StateReady
	StateNoImages
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateNoImages:
		return "no-images"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Preferences are carried from one chapter's session to the next.
type Preferences struct {
	ViewMode     ViewMode
	ZoomPercent  int
	AutoProgress bool
}

func DefaultPreferences() Preferences {
	return Preferences{ViewMode: Vertical, ZoomPercent: DefaultZoom, AutoProgress: true}
}

// PreferencesFromData converts stored preferences, replacing invalid
// values with defaults.
func PreferencesFromData(p data.ReaderPreferences) Preferences {
	prefs := DefaultPreferences()
	if mode, err := ParseViewMode(p.ViewMode); err == nil {
		prefs.ViewMode = mode
	}
	if p.ZoomPercent > 0 {
		prefs.ZoomPercent = ClampZoom(p.ZoomPercent)
	}
	prefs.AutoProgress = p.AutoProgress
	return prefs
}

func (p Preferences) Data() data.ReaderPreferences {
	return data.ReaderPreferences{
		ViewMode:     p.ViewMode.String(),
		ZoomPercent:  p.ZoomPercent,
		AutoProgress: p.AutoProgress,
	}
}

type Config struct {
	MangaID     string // may be empty; taken from the chapter once loaded
	ChapterID   string
	Preferences Preferences

	Provider ChapterProvider
	Recorder ProgressRecorder
	Resume   ProgressSource // optional
	Router   Router
	Auth     AuthContext
	Notifier Notifier

	Logger *zerolog.Logger
	Keys   *KeyMap
	Now    func() time.Time

	ControlsDelay time.Duration // zero means ControlsHideDelay
}

type ChapterLoadedMsg struct {
	Session   uint64
	Chapter   *data.Chapter
	StartPage int
	Err       error
}

type AdjacencyResolvedMsg struct {
	Session   uint64
	Adjacency Adjacency
	Err       error
}

// Snapshot is the read-only view of a session handed to the renderer.
type Snapshot struct {
	State              State
	MangaID            string
	ChapterID          string
	ChapterLabel       string
	CurrentPage        int
	TotalPages         int
	ViewMode           ViewMode
	ZoomPercent        int
	ControlsVisible    bool
	AutoProgress       bool
	HasPreviousChapter bool
	HasNextChapter     bool
	Layout             LayoutDirective
	VisiblePages       []int
	SyncedPage         int
	Err                error
}

var sessionSeq atomic.Uint64

// Session is the state of one open chapter view. It is created when the
// chapter is opened and discarded (Close) when the reader leaves it; moving
// to another chapter creates a new Session seeded with Preferences().
type Session struct {
	id     uint64
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	state     State
	err       error
	mangaID   string
	chapterID string
	chapter   *data.Chapter
	page      int
	prefs     Preferences
	adjacency Adjacency

	resolver *ChapterListResolver
	controls *ControlsTimer
	tracker  *PageTracker
	sync     *ProgressSync
	input    InputRouter

	failed        map[int]*ImageLoadError
	scrollPending bool
	width         int
	height        int
}

func NewSession(cfg Config) *Session {
	id := sessionSeq.Add(1)

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	keys := DefaultKeyMap()
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	prefs := cfg.Preferences
	prefs.ZoomPercent = ClampZoom(prefs.ZoomPercent)
	delay := cfg.ControlsDelay
	if delay <= 0 {
		delay = ControlsHideDelay
	}

	return &Session{
		id:        id,
		cfg:       cfg,
		logger:    logger.With().Uint64("session", id).Str("chapter", cfg.ChapterID).Logger(),
		now:       now,
		state:     StateLoading,
		mangaID:   cfg.MangaID,
		chapterID: cfg.ChapterID,
		prefs:     prefs,
		resolver:  NewChapterListResolver(cfg.Provider),
		controls:  NewControlsTimer(id, delay),
		sync:      NewProgressSync(id, cfg.Recorder, cfg.Auth, prefs.AutoProgress),
		input:     NewInputRouter(keys),
		failed:    make(map[int]*ImageLoadError),
	}
}

func (s *Session) ID() uint64 { return s.id }

// Init starts loading the chapter and shows the controls.
func (s *Session) Init() tea.Cmd {
	return tea.Batch(s.Load(), s.controls.Show(s.now()))
}

// Update feeds one event into the session. Messages from other (older)
// sessions and anything arriving after Close are dropped.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	if s.state == StateClosed {
		return nil
	}

	switch msg := msg.(type) {
	case ChapterLoadedMsg:
		if msg.Session == s.id {
			return s.handleChapterLoaded(msg)
		}
	case AdjacencyResolvedMsg:
		if msg.Session == s.id {
			s.handleAdjacency(msg)
		}
	case ProgressRecordedMsg:
		if msg.Session == s.id {
			s.handleProgressRecorded(msg)
		}
	case ControlsExpiredMsg:
		if msg.Session == s.id {
			s.controls.Expire(msg.Generation)
		}
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
	case tea.KeyMsg:
		_, cmd := s.HandleKey(msg)
		return cmd
	case tea.MouseMsg:
		_, cmd := s.HandleMouse(msg)
		return cmd
	}
	return nil
}

// Load fetches the chapter (and the resume point) without touching the
// controls. Init is Load plus the first controls countdown.
func (s *Session) Load() tea.Cmd {
	id, mangaID, chapterID := s.id, s.mangaID, s.chapterID
	provider, resume := s.cfg.Provider, s.cfg.Resume

	return func() tea.Msg {
		if provider == nil {
			return ChapterLoadedMsg{Session: id, Err: &DataFetchError{Resource: "chapter", ID: chapterID, Err: fmt.Errorf("no chapter provider")}}
		}
		ctx, cancel := context.WithTimeout(context.Background(), FetchTimeout)
		defer cancel()

		chapter, err := provider.GetChapter(ctx, chapterID)
		if err == nil && chapter == nil {
			err = fmt.Errorf("chapter not found")
		}
		if err != nil {
			return ChapterLoadedMsg{Session: id, Err: &DataFetchError{Resource: "chapter", ID: chapterID, Err: err}}
		}

		start := 1
		if resume != nil {
			owner := chapter.MangaID
			if owner == "" {
				owner = mangaID
			}
			if p, err := resume.GetProgress(ctx, owner, chapter.ID); err == nil && p != nil && !p.Completed {
				start = p.PageNumber
			}
		}
		return ChapterLoadedMsg{Session: id, Chapter: chapter, StartPage: start}
	}
}

func (s *Session) resolveAdjacency() tea.Cmd {
	id, mangaID, chapterID, resolver := s.id, s.mangaID, s.chapterID, s.resolver
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), FetchTimeout)
		defer cancel()
		adj, err := resolver.Resolve(ctx, mangaID, chapterID)
		return AdjacencyResolvedMsg{Session: id, Adjacency: adj, Err: err}
	}
}

func (s *Session) handleChapterLoaded(msg ChapterLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		s.state = StateError
		s.err = msg.Err
		s.logger.Error().Err(msg.Err).Msg("chapter load failed")
		s.warn(msg.Err.Error())
		return nil
	}

	s.chapter = msg.Chapter
	if msg.Chapter.MangaID != "" {
		s.mangaID = msg.Chapter.MangaID
	}

	total := msg.Chapter.TotalPages()
	if total == 0 {
		s.state = StateNoImages
		s.page = 0
		s.logger.Info().Msg("chapter has no images")
		return s.resolveAdjacency()
	}

	s.state = StateReady
	start := msg.StartPage
	if start < 1 || start > total {
		start = 1
	}
	s.page = start
	s.tracker = NewPageTracker(NewPageHandles(make([]int, total), 0), start)
	s.scrollPending = start > 1 && s.prefs.ViewMode == Vertical
	s.logger.Debug().Int("page", start).Int("total", total).Msg("chapter opened")

	return tea.Batch(
		s.sync.PageChanged(s.mangaID, s.chapterID, start, total),
		s.resolveAdjacency(),
	)
}

func (s *Session) handleAdjacency(msg AdjacencyResolvedMsg) {
	s.adjacency = msg.Adjacency
	if msg.Err != nil {
		s.logger.Warn().Err(msg.Err).Msg("chapter list unavailable")
		s.warn("Chapter list unavailable, chapter navigation disabled")
	}
}

func (s *Session) handleProgressRecorded(msg ProgressRecordedMsg) {
	applied, err := s.sync.Resolve(msg)
	if err != nil {
		syncErr := &ProgressSyncError{ChapterID: s.chapterID, Page: msg.Page, Err: err}
		s.logger.Warn().Err(err).Int("page", msg.Page).Msg("progress sync failed")
		s.warn(syncErr.Error())
		return
	}
	if !applied {
		s.logger.Debug().Uint64("seq", msg.Seq).Int("page", msg.Page).Msg("stale progress response dropped")
	}
}

func (s *Session) warn(message string) {
	if s.cfg.Notifier != nil {
		s.cfg.Notifier.Warn(message)
	}
}

func (s *Session) totalPages() int {
	return s.chapter.TotalPages()
}

// pagesNavigable is false while loading, on errors, for chapters without
// images and after Close.
func (s *Session) pagesNavigable() bool {
	return s.state == StateReady
}

// GoToPage moves to page n. Pages outside [1, total] leave the session
// unchanged.
func (s *Session) GoToPage(n int) tea.Cmd {
	if !s.pagesNavigable() || n < 1 || n > s.totalPages() || n == s.page {
		return nil
	}
	return s.setPage(n, true)
}

func (s *Session) setPage(n int, scroll bool) tea.Cmd {
	s.page = n
	s.tracker.Sync(n)
	if scroll && s.prefs.ViewMode == Vertical {
		s.scrollPending = true
	}
	s.logger.Debug().Int("page", n).Msg("page changed")
	return s.sync.PageChanged(s.mangaID, s.chapterID, n, s.totalPages())
}

// NextPage stops at the last page; it never moves to the next chapter.
func (s *Session) NextPage() tea.Cmd { return s.GoToPage(s.page + 1) }

// PreviousPage stops at the first page.
func (s *Session) PreviousPage() tea.Cmd { return s.GoToPage(s.page - 1) }

func (s *Session) FirstPage() tea.Cmd { return s.GoToPage(1) }

func (s *Session) LastPage() tea.Cmd { return s.GoToPage(s.totalPages()) }

// GoToPageInput handles a typed page number. Non-numeric input is ignored
// and out-of-range numbers are clamped; the returned error is for logging
// only.
func (s *Session) GoToPageInput(input string) (tea.Cmd, error) {
	if !s.pagesNavigable() {
		return nil, &InvalidPageInputError{Input: input, Reason: "no pages to navigate"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil, &InvalidPageInputError{Input: input, Reason: "not a number"}
	}
	total := s.totalPages()
	switch {
	case n < 1:
		n = 1
	case n > total:
		n = total
	}
	return s.GoToPage(n), nil
}

// SetViewMode never changes the current page. Entering the vertical view
// scrolls the current page into view.
func (s *Session) SetViewMode(mode ViewMode) {
	if _, ok := viewModeNames[mode]; !ok || mode == s.prefs.ViewMode || s.state == StateClosed {
		return
	}
	s.prefs.ViewMode = mode
	if mode == Vertical && s.pagesNavigable() {
		s.tracker.Sync(s.page)
		s.scrollPending = true
	}
	s.logger.Debug().Stringer("mode", mode).Msg("view mode changed")
}

func (s *Session) CycleViewMode() { s.SetViewMode(s.prefs.ViewMode.Next()) }

// SetZoom snaps pct to the nearest zoom step.
func (s *Session) SetZoom(pct int) { s.prefs.ZoomPercent = ClampZoom(pct) }

func (s *Session) ResetZoom() { s.prefs.ZoomPercent = DefaultZoom }

func (s *Session) ZoomIn() { s.prefs.ZoomPercent = ZoomIn(s.prefs.ZoomPercent) }

func (s *Session) ZoomOut() { s.prefs.ZoomPercent = ZoomOut(s.prefs.ZoomPercent) }

// ToggleAutoProgress turns progress syncing on or off; the current page is
// not touched.
func (s *Session) ToggleAutoProgress(enabled bool) {
	s.prefs.AutoProgress = enabled
	s.sync.SetEnabled(enabled)
}

// NavigatePreviousChapter routes to the earlier chapter, if there is one.
func (s *Session) NavigatePreviousChapter() bool {
	return s.navigateTo(s.adjacency.Previous)
}

// NavigateNextChapter routes to the later chapter, if there is one.
func (s *Session) NavigateNextChapter() bool {
	return s.navigateTo(s.adjacency.Next)
}

func (s *Session) navigateTo(chapter *data.Chapter) bool {
	if chapter == nil || s.state == StateClosed || s.cfg.Router == nil {
		return false
	}
	mangaID := chapter.MangaID
	if mangaID == "" {
		mangaID = s.mangaID
	}
	s.cfg.Router.Navigate(ChapterPath(mangaID, chapter.ID))
	return true
}

// Exit routes back to the manga, or home when the manga is unknown.
func (s *Session) Exit() {
	if s.state == StateClosed || s.cfg.Router == nil {
		return
	}
	if s.mangaID == "" {
		s.cfg.Router.Navigate(HomePath)
		return
	}
	s.cfg.Router.Navigate(MangaPath(s.mangaID))
}

// Scroll reports the vertical view's scroll position. It only has an
// effect in the vertical mode.
func (s *Session) Scroll(scrollTop, viewportHeight int) tea.Cmd {
	if !s.pagesNavigable() || s.prefs.ViewMode != Vertical {
		return nil
	}
	page, changed := s.tracker.Track(scrollTop, viewportHeight)
	if !changed || page == s.page {
		return nil
	}
	return s.setPage(page, false)
}

// SetPageHeights installs the rendered page extents used by the vertical
// tracker. heights must have one entry per page.
func (s *Session) SetPageHeights(heights []int, gap int) bool {
	if !s.pagesNavigable() || len(heights) != s.totalPages() {
		return false
	}
	s.tracker = NewPageTracker(NewPageHandles(heights, gap), s.page)
	return true
}

// TakeScrollTarget returns, once, the offset the vertical view should
// scroll to after a page change it did not cause itself.
func (s *Session) TakeScrollTarget() (int, bool) {
	if !s.scrollPending || s.tracker == nil {
		return 0, false
	}
	s.scrollPending = false
	return s.tracker.Offset(s.page)
}

// PageLoadFailed marks one page as broken; other pages are unaffected.
func (s *Session) PageLoadFailed(page int, url string, err error) {
	if page < 1 || page > s.totalPages() {
		return
	}
	s.failed[page] = &ImageLoadError{Page: page, URL: url, Err: err}
	s.logger.Warn().Err(err).Int("page", page).Msg("page image failed")
}

func (s *Session) PageLoaded(page int) {
	delete(s.failed, page)
}

// PageError is the load error of page, or nil.
func (s *Session) PageError(page int) error {
	if e, ok := s.failed[page]; ok {
		return e
	}
	return nil
}

// HandleKey routes a key press. Every key press reveals the controls.
func (s *Session) HandleKey(msg tea.KeyMsg) (Action, tea.Cmd) {
	if s.state == StateClosed {
		return ActionNone, nil
	}
	show := s.controls.Show(s.now())
	action := s.input.RouteKey(msg, s.prefs.ViewMode)
	return action, tea.Batch(show, s.Perform(action))
}

// HandleMouse routes a mouse event; motion and clicks reveal the controls.
func (s *Session) HandleMouse(msg tea.MouseMsg) (Action, tea.Cmd) {
	if s.state == StateClosed {
		return ActionNone, nil
	}
	action, qualifying := s.input.RouteMouse(msg, s.prefs.ViewMode, s.width)
	var show tea.Cmd
	if qualifying {
		show = s.controls.Show(s.now())
	}
	return action, tea.Batch(show, s.Perform(action))
}

// ShowControls reveals the controls and restarts the hide countdown.
func (s *Session) ShowControls() tea.Cmd {
	if s.state == StateClosed {
		return nil
	}
	return s.controls.Show(s.now())
}

// Perform executes an action. ActionEnterPage is left to the host, which
// owns the text input.
func (s *Session) Perform(action Action) tea.Cmd {
	switch action {
	case ActionPreviousPage:
		return s.PreviousPage()
	case ActionNextPage:
		return s.NextPage()
	case ActionFirstPage:
		return s.FirstPage()
	case ActionLastPage:
		return s.LastPage()
	case ActionExit:
		s.Exit()
	case ActionZoomIn:
		s.ZoomIn()
	case ActionZoomOut:
		s.ZoomOut()
	case ActionResetZoom:
		s.ResetZoom()
	case ActionCycleViewMode:
		s.CycleViewMode()
	case ActionPreviousChapter:
		s.NavigatePreviousChapter()
	case ActionNextChapter:
		s.NavigateNextChapter()
	case ActionToggleAutoProgress:
		s.ToggleAutoProgress(!s.prefs.AutoProgress)
	}
	return nil
}

// Close tears the session down: the hide countdown is cancelled and every
// later event or async result is ignored.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.controls.Cancel()
	s.logger.Debug().Msg("session closed")
}

func (s *Session) Preferences() Preferences { return s.prefs }

func (s *Session) Chapter() *data.Chapter { return s.chapter }

func (s *Session) Snapshot() Snapshot {
	layout := Layout(s.prefs.ViewMode, s.prefs.ZoomPercent)
	snap := Snapshot{
		State:              s.state,
		MangaID:            s.mangaID,
		ChapterID:          s.chapterID,
		CurrentPage:        s.page,
		TotalPages:         s.totalPages(),
		ViewMode:           s.prefs.ViewMode,
		ZoomPercent:        s.prefs.ZoomPercent,
		ControlsVisible:    s.controls.Visible(),
		AutoProgress:       s.prefs.AutoProgress,
		HasPreviousChapter: s.adjacency.Previous != nil,
		HasNextChapter:     s.adjacency.Next != nil,
		Layout:             layout,
		SyncedPage:         s.sync.SyncedPage(),
		Err:                s.err,
	}
	if s.chapter != nil {
		snap.ChapterLabel = s.chapter.Label()
	}
	if s.state == StateReady {
		snap.VisiblePages = layout.VisiblePages(s.page, snap.TotalPages)
	}
	return snap
}

package screens

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/components"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/services"
)

// pageGap is the number of blank rows between pages in the vertical view.
const pageGap = 1

// chromeRows are reserved for the top bar, the status line and the help line.
const chromeRows = 3

type pageView struct {
	img    image.Image
	width  int
	height int
	err    error

	// last render
	cols, rows int
	out        string
}

func (p *pageView) render(cols, rows int) string {
	if p.out == "" || p.cols != cols || p.rows != rows {
		p.cols, p.rows = cols, rows
		p.out = integrations.RenderHalfBlocks(p.img, cols, rows)
	}
	return p.out
}

type pageFetchedMsg struct {
	session uint64
	page    int
	url     string
	img     image.Image
	err     error
	results <-chan services.PageResult
}

type pagesDoneMsg struct {
	session uint64
}

type layoutKey struct {
	width    int
	height   int
	mode     reader.ViewMode
	zoom     int
	revision int
}

// ReaderScreen hosts a reader.Session: it draws the pages, forwards input
// and acts as the session's router and notifier.
type ReaderScreen struct {
	deps    *Deps
	session *reader.Session
	keys    reader.KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	entering bool

	pages       map[int]*pageView
	revision    int
	loaded      int
	started     bool
	fetching    bool
	cancelFetch context.CancelFunc

	layout  layoutKey
	handles *reader.PageHandles

	route   string
	warning string
	width   int
	height  int
}

func NewReaderScreen(deps *Deps, mangaID, chapterID string, prefs reader.Preferences) *ReaderScreen {
	ti := textinput.New()
	ti.Placeholder = "page number"
	ti.CharLimit = 6
	ti.Width = 12
	ti.Prompt = "Go to page: "

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	s := &ReaderScreen{
		deps:     deps,
		keys:     reader.DefaultKeyMap(),
		viewport: vp,
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.StatusReading)),
		help:     help.New(),
		pages:    make(map[int]*pageView),
	}
	logger := deps.Logger
	s.session = reader.NewSession(reader.Config{
		MangaID:     mangaID,
		ChapterID:   chapterID,
		Preferences: prefs,
		Provider:    deps.Chapters,
		Recorder:    deps.Progress,
		Resume:      deps.Resume,
		Router:      s,
		Auth:        deps.Auth,
		Notifier:    s,
		Logger:      &logger,
		Keys:        &s.keys,

		ControlsDelay: deps.ControlsDelay,
	})
	return s
}

// Navigate implements reader.Router. The route is handed to the root
// screen after the current update.
func (s *ReaderScreen) Navigate(path string) { s.route = path }

// Warn implements reader.Notifier.
func (s *ReaderScreen) Warn(message string) { s.warning = message }

func (s *ReaderScreen) Session() *reader.Session { return s.session }

func (s *ReaderScreen) Preferences() reader.Preferences { return s.session.Preferences() }

// Entering reports whether the go-to-page input has the keyboard.
func (s *ReaderScreen) Entering() bool { return s.entering }

// Close stops page downloads and ends the session.
func (s *ReaderScreen) Close() {
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.session.Close()
}

func (s *ReaderScreen) Init() tea.Cmd {
	return tea.Batch(s.session.Init(), s.spinner.Tick)
}

func (s *ReaderScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		s.help.Width = msg.Width
		s.viewport.Width = msg.Width
		s.viewport.Height = s.bodyHeight()
		return s, s.afterUpdate(s.session.Update(msg))

	case spinner.TickMsg:
		if !s.busy() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case pageFetchedMsg:
		if msg.session != s.session.ID() {
			return s, nil
		}
		s.applyPage(msg)
		return s, s.afterUpdate(waitForPage(msg.session, msg.results))

	case pagesDoneMsg:
		if msg.session == s.session.ID() {
			s.fetching = false
		}
		return s, nil

	case tea.KeyMsg:
		return s, s.afterUpdate(s.handleKey(msg))

	case tea.MouseMsg:
		action, cmd := s.session.HandleMouse(msg)
		cmds := []tea.Cmd{cmd}
		if action == reader.ActionNone && s.vertical() && tea.MouseEvent(msg).IsWheel() {
			cmds = append(cmds, s.scrollViewport(msg))
		}
		return s, s.afterUpdate(cmds...)
	}

	return s, s.afterUpdate(s.session.Update(msg))
}

func (s *ReaderScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.entering {
		return s.updateInput(msg)
	}
	action, cmd := s.session.HandleKey(msg)
	switch {
	case action == reader.ActionEnterPage:
		s.entering = true
		s.input.Reset()
		return tea.Batch(cmd, s.input.Focus())
	case action == reader.ActionNone && s.vertical():
		return tea.Batch(cmd, s.scrollViewport(msg))
	}
	return cmd
}

func (s *ReaderScreen) updateInput(msg tea.KeyMsg) tea.Cmd {
	show := s.session.ShowControls()
	switch msg.Type {
	case tea.KeyEnter:
		s.entering = false
		s.input.Blur()
		cmd, err := s.session.GoToPageInput(s.input.Value())
		if err != nil {
			// bad input is dropped, never shown
			s.deps.Logger.Debug().Err(err).Msg("page input ignored")
		}
		return tea.Batch(show, cmd)
	case tea.KeyEsc:
		s.entering = false
		s.input.Blur()
		return show
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return tea.Batch(show, cmd)
}

// scrollViewport lets the viewport handle scrolling input and reports the
// new position to the session.
func (s *ReaderScreen) scrollViewport(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return tea.Batch(cmd, s.session.Scroll(s.viewport.YOffset, s.viewport.Height))
}

// afterUpdate runs after every message: it starts page downloads once the
// chapter is known, keeps the vertical layout in sync with the session and
// forwards pending navigation to the root screen.
func (s *ReaderScreen) afterUpdate(cmds ...tea.Cmd) tea.Cmd {
	snap := s.session.Snapshot()
	if snap.State == reader.StateReady && !s.started {
		s.started = true
		cmds = append(cmds, s.startFetch())
	}
	if snap.State == reader.StateReady && snap.ViewMode == reader.Vertical {
		s.refreshVertical(snap)
		if offset, ok := s.session.TakeScrollTarget(); ok {
			s.viewport.SetYOffset(offset)
		}
	}
	if s.route != "" {
		cmds = append(cmds, navigate(s.route))
		s.route = ""
	}
	return tea.Batch(cmds...)
}

func (s *ReaderScreen) startFetch() tea.Cmd {
	chapter := s.session.Chapter()
	if s.deps.Downloader == nil || chapter == nil || len(chapter.Images) == 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFetch = cancel
	s.fetching = true
	return waitForPage(s.session.ID(), s.deps.Downloader.Fetch(ctx, chapter.ID, chapter.Images))
}

// waitForPage receives the next downloaded page and decodes it off the
// event loop.
func waitForPage(session uint64, results <-chan services.PageResult) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return pagesDoneMsg{session: session}
		}
		msg := pageFetchedMsg{session: session, page: r.Page, url: r.URL, err: r.Err, results: results}
		if msg.err == nil {
			msg.img, msg.err = r.Image.Decode()
		}
		return msg
	}
}

func (s *ReaderScreen) applyPage(msg pageFetchedMsg) {
	s.revision++
	s.loaded++
	if msg.err != nil {
		s.session.PageLoadFailed(msg.page, msg.url, msg.err)
		s.pages[msg.page] = &pageView{err: msg.err}
		return
	}
	s.session.PageLoaded(msg.page)
	b := msg.img.Bounds()
	s.pages[msg.page] = &pageView{img: msg.img, width: b.Dx(), height: b.Dy()}
}

func (s *ReaderScreen) busy() bool {
	return s.session.Snapshot().State == reader.StateLoading || s.fetching
}

func (s *ReaderScreen) vertical() bool {
	return s.session.Preferences().ViewMode == reader.Vertical
}

func (s *ReaderScreen) bodyHeight() int {
	if h := s.height - chromeRows; h > 1 {
		return h
	}
	return 1
}

// verticalColumns is the page width in the vertical view: two thirds of the
// terminal at 100%, never wider than the terminal.
func (s *ReaderScreen) verticalColumns(scale float64) int {
	cols := int(float64(s.width) * 2 / 3 * scale)
	if cols > s.width {
		cols = s.width
	}
	if cols < 8 {
		cols = 8
	}
	return cols
}

// refreshVertical rebuilds the vertical strip when the terminal, the zoom
// or the loaded pages changed, and keeps the current page in place.
func (s *ReaderScreen) refreshVertical(snap reader.Snapshot) {
	key := layoutKey{width: s.width, height: s.height, mode: snap.ViewMode, zoom: snap.ZoomPercent, revision: s.revision}
	if key == s.layout && s.handles != nil {
		return
	}

	anchor, delta := snap.CurrentPage, 0
	if s.handles != nil && s.layout.mode == reader.Vertical {
		if r, ok := s.handles.Get(anchor); ok && s.viewport.YOffset > r.Top {
			delta = s.viewport.YOffset - r.Top
		}
	}

	cols := s.verticalColumns(snap.Layout.Scale)
	heights := make([]int, snap.TotalPages)
	blocks := make([]string, snap.TotalPages)
	for i := range heights {
		page := i + 1
		heights[i] = s.pageRows(page, cols)
		blocks[i] = lipgloss.PlaceHorizontal(s.width, lipgloss.Center, s.renderPage(page, cols, 0, heights[i]))
	}
	s.handles = reader.NewPageHandles(heights, pageGap)
	s.session.SetPageHeights(heights, pageGap)
	s.viewport.SetContent(strings.Join(blocks, "\n"+strings.Repeat("\n", pageGap)))
	s.layout = key

	if r, ok := s.handles.Get(anchor); ok {
		if limit := r.Bottom - r.Top; delta > limit {
			delta = limit
		}
		s.viewport.SetYOffset(r.Top + delta)
	}
}

// failedRows is the height of the notice drawn in place of a broken page.
const failedRows = 3

// pageRows is the height of a page drawn cols wide. Pages that are not
// loaded yet are assumed to be 2:3 portraits.
func (s *ReaderScreen) pageRows(page, cols int) int {
	p, ok := s.pages[page]
	switch {
	case ok && p.img != nil:
		return integrations.RowsFor(p.width, p.height, cols)
	case ok:
		return failedRows
	}
	return integrations.RowsFor(2, 3, cols)
}

// renderPage draws one page, or a placeholder box of placeholderRows when it
// is not available. rows limits the image height (0 for none).
func (s *ReaderScreen) renderPage(page, cols, rows, placeholderRows int) string {
	p, ok := s.pages[page]
	switch {
	case ok && p.img != nil:
		return p.render(cols, rows)
	case ok || s.session.PageError(page) != nil:
		text := styles.StatusError.Render(fmt.Sprintf("Page %d could not be loaded", page))
		return lipgloss.Place(cols, placeholderRows, lipgloss.Center, lipgloss.Center, text)
	}
	text := styles.MutedStyle.Render(fmt.Sprintf("Page %d", page))
	return lipgloss.Place(cols, placeholderRows, lipgloss.Center, lipgloss.Center, text)
}

// renderPaged draws the visible page or spread for the paged modes.
func (s *ReaderScreen) renderPaged(snap reader.Snapshot) string {
	avail := s.bodyHeight()
	scale := snap.Layout.Scale
	scaled := func(n int) int {
		v := int(float64(n) * scale)
		if v < 1 {
			return 1
		}
		return v
	}

	var out string
	switch snap.Layout.Sizing {
	case reader.SizingSpread:
		cols, rows := scaled(s.width/2), scaled(avail)
		drawn := make([]string, 0, len(snap.VisiblePages))
		for _, page := range snap.VisiblePages {
			drawn = append(drawn, s.renderPage(page, cols, rows, min(rows, avail)))
		}
		out = lipgloss.JoinHorizontal(lipgloss.Top, drawn...)
	case reader.SizingFitWidth:
		cols := scaled(s.width)
		out = s.renderPage(snap.CurrentPage, cols, 0, avail)
	case reader.SizingFitHeight:
		rows := scaled(avail)
		out = s.renderPage(snap.CurrentPage, s.width*4, rows, avail)
	default:
		out = s.renderPage(snap.CurrentPage, scaled(s.width), scaled(avail), avail)
	}

	lines := strings.Split(out, "\n")
	if len(lines) > avail {
		lines = lines[:avail]
	}
	out = lipgloss.NewStyle().MaxWidth(s.width).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(s.width, avail, lipgloss.Center, lipgloss.Top, out)
}

func (s *ReaderScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}
	snap := s.session.Snapshot()

	var body string
	switch snap.State {
	case reader.StateLoading:
		body = s.centered(s.spinner.View() + " Loading chapter...")
	case reader.StateError:
		body = s.centered(styles.StatusError.Render(fmt.Sprintf("Error: %s", snap.Err)) + "\n\n" +
			styles.MutedStyle.Render("esc: back"))
	case reader.StateNoImages:
		body = s.centered(styles.MutedStyle.Render("This chapter has no images."))
	case reader.StateReady:
		if snap.ViewMode == reader.Vertical {
			body = s.viewport.View()
		} else {
			body = s.renderPaged(snap)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, s.topBar(snap), body, s.statusLine(snap), s.helpLine(snap))
}

func (s *ReaderScreen) centered(content string) string {
	return lipgloss.Place(s.width, s.bodyHeight(), lipgloss.Center, lipgloss.Center, content)
}

func (s *ReaderScreen) topBar(snap reader.Snapshot) string {
	if !snap.ControlsVisible {
		return ""
	}
	title := snap.ChapterLabel
	if title == "" {
		title = snap.ChapterID
	}
	parts := []string{title}
	if snap.TotalPages > 0 {
		parts = append(parts, fmt.Sprintf("Page %d/%d", snap.CurrentPage, snap.TotalPages))
	}
	parts = append(parts, snap.ViewMode.String(), fmt.Sprintf("%d%%", snap.ZoomPercent))
	if snap.AutoProgress {
		parts = append(parts, "auto-progress")
	}
	if snap.HasPreviousChapter {
		parts = append(parts, "[ prev")
	}
	if snap.HasNextChapter {
		parts = append(parts, "] next")
	}
	// one row only: cut the text rather than let the bar wrap
	text := lipgloss.NewStyle().
		MaxWidth(max(s.width-styles.ReaderBarStyle.GetHorizontalFrameSize(), 1)).
		Render(strings.Join(parts, " · "))
	return styles.ReaderBarStyle.Width(s.width).Render(text)
}

func (s *ReaderScreen) statusLine(snap reader.Snapshot) string {
	switch {
	case s.entering:
		return s.input.View()
	case s.warning != "":
		return styles.StatusWarning.MaxWidth(s.width).Render(s.warning)
	case s.fetching && snap.TotalPages > 0:
		label := fmt.Sprintf("%s pages %d/%d ", s.spinner.View(), s.loaded, snap.TotalPages)
		return label + components.SimpleProgress(s.loaded, snap.TotalPages, s.width/3)
	}
	return ""
}

func (s *ReaderScreen) helpLine(snap reader.Snapshot) string {
	if !snap.ControlsVisible && snap.State == reader.StateReady {
		return ""
	}
	return s.help.View(s.keys)
}

package screens

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/rs/zerolog"
)

// Deps are the services shared by every screen.
type Deps struct {
	Library    *services.Library
	Downloader *services.Downloader
	Exporter   *integrations.EPubBuilder

	// The reader's data access: the local library, or the remote server
	// when a token is configured.
	Chapters reader.ChapterProvider
	Progress reader.ProgressRecorder
	Resume   reader.ProgressSource
	Auth     reader.AuthContext

	Preferences     reader.Preferences
	SavePreferences func(data.ReaderPreferences) error
	ControlsDelay   time.Duration

	Logger zerolog.Logger
}

// NavigateMsg asks the root screen to show the screen of a route.
type NavigateMsg struct {
	Path string
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// Route is a parsed screen path: "/", "/manga/{id}" or
// "/manga/{id}/chapter/{chapterId}".
type Route struct {
	MangaID   string
	ChapterID string
}

func ParseRoute(path string) (Route, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return Route{}, nil
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		unescaped, err := url.PathUnescape(p)
		if err != nil {
			return Route{}, fmt.Errorf("invalid route %q: %w", path, err)
		}
		parts[i] = unescaped
	}

	switch {
	case len(parts) == 2 && parts[0] == "manga" && parts[1] != "":
		return Route{MangaID: parts[1]}, nil
	case len(parts) == 4 && parts[0] == "manga" && parts[2] == "chapter" && parts[3] != "":
		return Route{MangaID: parts[1], ChapterID: parts[3]}, nil
	}
	return Route{}, fmt.Errorf("unknown route %q", path)
}

type screenType int

const (
	libraryView screenType = iota
	searchView
	detailsView
	readerView
)

type RootScreen struct {
	deps  *Deps
	prefs reader.Preferences

	currentView screenType
	library     *LibraryScreen
	search      *SearchScreen
	details     *DetailsScreen
	reader      *ReaderScreen
	startCmd    tea.Cmd

	width  int
	height int
	err    error
}

// NewRootScreen opens at start, a route path ("" or "/" for the library).
func NewRootScreen(deps *Deps, start string) *RootScreen {
	r := &RootScreen{
		deps:        deps,
		prefs:       deps.Preferences,
		currentView: libraryView,
		library:     NewLibraryScreen(deps),
		search:      NewSearchScreen(deps),
	}
	if start != "" && start != reader.HomePath {
		r.startCmd = r.open(start)
	}
	return r
}

func (r *RootScreen) Init() tea.Cmd {
	return tea.Batch(r.library.Init(), r.startCmd)
}

// Current is the route of the screen on display.
func (r *RootScreen) Current() string {
	switch r.currentView {
	case detailsView:
		return reader.MangaPath(r.details.mangaID)
	case readerView:
		snap := r.reader.session.Snapshot()
		return reader.ChapterPath(snap.MangaID, snap.ChapterID)
	}
	return reader.HomePath
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		r.resize(r.library, r.search, r.details, r.reader)
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			r.leaveReader()
			return r, tea.Quit
		case "q":
			if !r.typing() {
				r.leaveReader()
				return r, tea.Quit
			}
		case "tab":
			if r.currentView == libraryView {
				r.currentView = searchView
				return r, r.search.Init()
			}
			if r.currentView == searchView && !r.search.input.Focused() {
				r.currentView = libraryView
				return r, r.library.Init()
			}
		}

	case NavigateMsg:
		return r, r.open(msg.Path)
	}

	return r, r.forward(msg)
}

// typing reports whether the active screen has a focused text input.
func (r *RootScreen) typing() bool {
	switch r.currentView {
	case searchView:
		return r.search.input.Focused()
	case readerView:
		return r.reader.Entering()
	}
	return false
}

// forward hands msg to the screen it belongs to: results of background
// work go to the screen that started it, input goes to the active screen.
func (r *RootScreen) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.(type) {
	case libraryLoadedMsg, mangaDeletedMsg:
		_, cmd = r.library.Update(msg)
		return cmd
	case searchResultMsg, mangaAddedMsg:
		_, cmd = r.search.Update(msg)
		return cmd
	case detailsLoadedMsg, exportProgressMsg:
		if r.details != nil {
			_, cmd = r.details.Update(msg)
		}
		return cmd
	}

	switch r.currentView {
	case libraryView:
		_, cmd = r.library.Update(msg)
	case searchView:
		_, cmd = r.search.Update(msg)
	case detailsView:
		_, cmd = r.details.Update(msg)
	case readerView:
		_, cmd = r.reader.Update(msg)
	}
	return cmd
}

// open switches to the screen of path. Leaving a chapter closes its
// session; its preferences seed the next one.
func (r *RootScreen) open(path string) tea.Cmd {
	route, err := ParseRoute(path)
	if err != nil {
		r.deps.Logger.Warn().Err(err).Msg("navigation ignored")
		r.err = err
		return nil
	}
	r.err = nil
	r.leaveReader()
	if r.details != nil && route.MangaID != r.details.mangaID {
		r.details.Close()
		r.details = nil
	}

	switch {
	case route.ChapterID != "":
		r.reader = NewReaderScreen(r.deps, route.MangaID, route.ChapterID, r.prefs)
		r.resize(r.reader)
		r.currentView = readerView
		return r.reader.Init()
	case route.MangaID != "":
		if r.details == nil {
			r.details = NewDetailsScreen(r.deps, route.MangaID)
			r.resize(r.details)
		}
		r.currentView = detailsView
		return r.details.Init()
	}
	r.currentView = libraryView
	return r.library.Init()
}

func (r *RootScreen) leaveReader() {
	if r.reader == nil {
		return
	}
	r.prefs = r.reader.Preferences()
	r.reader.Close()
	r.reader = nil
	if r.deps.SavePreferences != nil {
		if err := r.deps.SavePreferences(r.prefs.Data()); err != nil {
			r.deps.Logger.Warn().Err(err).Msg("could not save reader preferences")
		}
	}
}

func (r *RootScreen) resize(screens ...tea.Model) {
	if r.width == 0 {
		return
	}
	for _, s := range screens {
		switch s := s.(type) {
		case *ReaderScreen:
			if s != nil {
				s.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height})
			}
		case *DetailsScreen:
			if s != nil {
				s.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height - 2})
			}
		case *LibraryScreen:
			s.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height - 2})
		case *SearchScreen:
			s.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height - 2})
		}
	}
}

func (r *RootScreen) View() string {
	var content string
	switch r.currentView {
	case readerView:
		return r.reader.View()
	case libraryView:
		content = r.library.View()
	case searchView:
		content = r.search.View()
	case detailsView:
		content = r.details.View()
	}

	if r.err != nil {
		content = styles.StatusError.Render(r.err.Error()) + "\n" + content
	}
	return fmt.Sprintf("%s\n\n%s", r.renderTabs(), content)
}

func (r *RootScreen) renderTabs() string {
	if r.currentView == detailsView {
		return styles.MutedStyle.Render("Library › Manga")
	}

	libraryTab := styles.InactiveTabStyle.Render("Library")
	searchTab := styles.InactiveTabStyle.Render("Search")
	if r.currentView == libraryView {
		libraryTab = styles.ActiveTabStyle.Render("Library")
	} else {
		searchTab = styles.ActiveTabStyle.Render("Search")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, libraryTab, searchTab)
}

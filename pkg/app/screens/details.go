package screens

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/components"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
)

type DetailsScreen struct {
	deps            *Deps
	mangaID         string
	manga           *data.Manga
	chapters        []*data.Chapter
	progress        map[string]data.ReadingProgress
	selectedChapter int
	loaded          bool

	progressTracker *components.ProgressTracker
	jobs            chan components.Job
	listening       bool
	ctx             context.Context
	cancel          context.CancelFunc

	width  int
	height int
	err    error
}

func NewDetailsScreen(deps *Deps, mangaID string) *DetailsScreen {
	ctx, cancel := context.WithCancel(context.Background())
	return &DetailsScreen{
		deps:            deps,
		mangaID:         mangaID,
		progressTracker: components.NewProgressTracker(80),
		jobs:            make(chan components.Job, 16),
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (s *DetailsScreen) Init() tea.Cmd {
	return s.loadDetails
}

// Close cancels running exports.
func (s *DetailsScreen) Close() {
	s.cancel()
}

func (s *DetailsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.progressTracker.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selectedChapter > 0 {
				s.selectedChapter--
			}
		case "down", "j":
			if s.selectedChapter < len(s.chapters)-1 {
				s.selectedChapter++
			}
		case "r":
			return s, s.loadDetails
		case "enter":
			if ch := s.selected(); ch != nil {
				return s, navigate(reader.ChapterPath(s.mangaID, ch.ID))
			}
		case "e":
			if ch := s.selected(); ch != nil && !s.progressTracker.Running(ch.ID) {
				return s, s.exportChapter(ch)
			}
		case "esc", "backspace":
			return s, navigate(reader.HomePath)
		}

	case detailsLoadedMsg:
		if msg.mangaID != s.mangaID {
			break
		}
		s.loaded = true
		s.err = msg.err
		if msg.manga != nil {
			s.manga = msg.manga
		}
		if msg.chapters != nil {
			s.chapters = msg.chapters
			s.progress = msg.progress
		}
		if s.selectedChapter >= len(s.chapters) {
			s.selectedChapter = 0
		}

	case exportProgressMsg:
		s.listening = false
		s.progressTracker.Update(components.Job(msg))
		if msg.Status == "complete" {
			return s, tea.Batch(s.loadDetails, s.listenForProgress())
		}
		return s, s.listenForProgress()
	}

	return s, nil
}

func (s *DetailsScreen) selected() *data.Chapter {
	if s.selectedChapter < 0 || s.selectedChapter >= len(s.chapters) {
		return nil
	}
	return s.chapters[s.selectedChapter]
}

func (s *DetailsScreen) View() string {
	if s.width == 0 || !s.loaded {
		return "Loading..."
	}

	name := s.mangaID
	if s.manga != nil {
		name = s.manga.Name
	}
	header := styles.TitleStyle.Render(fmt.Sprintf("📖 %s", name))

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k ↓/j: navigate • enter: read • e: export EPUB • r: refresh • esc: back • q: quit",
	)

	return fmt.Sprintf("%s\n%s%s\n%s\n%s\n%s",
		header,
		errorMsg,
		s.renderMangaInfo(),
		s.renderChaptersList(),
		s.progressTracker.View(),
		help,
	)
}

func (s *DetailsScreen) renderMangaInfo() string {
	if s.manga == nil {
		return ""
	}
	desc := s.manga.Description
	if len(desc) > 200 {
		desc = desc[:197] + "..."
	}

	status := s.manga.Status
	if status == "" {
		status = "unknown"
	}
	info := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.TextStyle.Render(desc),
		styles.MutedStyle.Render(fmt.Sprintf("Source: %s • Status: %s", s.manga.Source, status)),
	)

	return styles.CardStyle.Width(s.width - 4).Render(info)
}

// chapterWindow is how many chapter rows fit on screen.
func (s *DetailsScreen) chapterWindow() int {
	if n := s.height - 16; n > 5 {
		return n
	}
	return 5
}

func (s *DetailsScreen) renderChaptersList() string {
	if len(s.chapters) == 0 {
		return styles.MutedStyle.Render("No chapters available")
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Chapters (%d total):", len(s.chapters))))
	b.WriteString("\n\n")

	window := s.chapterWindow()
	start, end := 0, len(s.chapters)
	if end > window {
		start = s.selectedChapter - window/2
		if start < 0 {
			start = 0
		}
		end = start + window
		if end > len(s.chapters) {
			end = len(s.chapters)
			start = end - window
		}
	}

	for i := start; i < end; i++ {
		ch := s.chapters[i]

		icon, style := "○", styles.MutedStyle
		var suffix string
		if p, ok := s.progress[ch.ID]; ok {
			if p.Completed {
				icon, style = "●", styles.StatusCompleted
			} else {
				icon, style = "◐", styles.StatusReading
				suffix = fmt.Sprintf(" (page %d/%d)", p.PageNumber, p.TotalPages)
			}
		}
		if ch.Downloaded {
			suffix += " ⤓"
		}

		line := fmt.Sprintf("%s %s%s", icon, ch.Label(), suffix)
		if i == s.selectedChapter {
			line = styles.SelectedStyle.Render("▸ " + line)
		} else {
			line = "  " + style.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(s.chapters) > window {
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render(
			fmt.Sprintf("Showing %d-%d of %d chapters", start+1, end, len(s.chapters)),
		))
	}

	return b.String()
}

type detailsLoadedMsg struct {
	mangaID  string
	manga    *data.Manga
	chapters []*data.Chapter
	progress map[string]data.ReadingProgress
	err      error
}

type exportProgressMsg components.Job

func (s *DetailsScreen) loadDetails() tea.Msg {
	msg := s.fetchDetails()
	msg.mangaID = s.mangaID
	return msg
}

func (s *DetailsScreen) fetchDetails() detailsLoadedMsg {
	manga, err := s.deps.Library.GetManga(s.ctx, s.mangaID)
	if err != nil {
		return detailsLoadedMsg{err: err}
	}

	ctx, cancel := context.WithTimeout(s.ctx, reader.FetchTimeout)
	defer cancel()
	chapters, err := s.deps.Chapters.GetChaptersForManga(ctx, s.mangaID)
	if err != nil {
		return detailsLoadedMsg{manga: manga, err: err}
	}
	if manga == nil && len(chapters) == 0 {
		return detailsLoadedMsg{err: fmt.Errorf("manga %s not found", s.mangaID)}
	}

	progress, err := s.deps.Library.ChapterProgress(s.mangaID)
	if err != nil {
		return detailsLoadedMsg{manga: manga, chapters: chapters, err: err}
	}
	return detailsLoadedMsg{manga: manga, chapters: chapters, progress: progress}
}

// exportChapter runs the export in the background. Progress and the
// result arrive on s.jobs and are picked up by listenForProgress.
func (s *DetailsScreen) exportChapter(ch *data.Chapter) tea.Cmd {
	job := components.Job{ChapterID: ch.ID, Label: ch.Label(), Status: "exporting", Total: ch.TotalPages()}
	s.progressTracker.Update(job)

	go func() {
		path, err := s.deps.Library.ExportChapter(s.ctx, ch.ID, s.deps.Downloader, s.deps.Exporter, func(done, total int) {
			update := job
			update.Done, update.Total = done, total
			select {
			case s.jobs <- update:
			default:
			}
		})

		final := job
		final.Status, final.Path, final.Err = "complete", path, err
		if err != nil {
			final.Status = "error"
			s.deps.Logger.Error().Err(err).Str("chapter", ch.ID).Msg("export failed")
		}
		select {
		case s.jobs <- final:
		case <-s.ctx.Done():
		}
	}()

	return s.listenForProgress()
}

// listenForProgress waits for the next export update while an export is
// running. At most one listener is pending at a time.
func (s *DetailsScreen) listenForProgress() tea.Cmd {
	if s.listening || !s.progressTracker.HasActive() {
		return nil
	}
	s.listening = true
	jobs := s.jobs
	return func() tea.Msg {
		return exportProgressMsg(<-jobs)
	}
}

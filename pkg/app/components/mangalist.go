package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/services"
)

// MangaListItem is one library card: a manga plus where the user is in it.
type MangaListItem = services.Summary

type MangaList struct {
	Items         []MangaListItem
	SelectedIndex int
	Width         int
	Height        int
}

func NewMangaList() *MangaList {
	return &MangaList{
		Items:  []MangaListItem{},
		Width:  80,
		Height: 20,
	}
}

func (m *MangaList) SetItems(items []MangaListItem) {
	m.Items = items
	if m.SelectedIndex >= len(items) && len(items) > 0 {
		m.SelectedIndex = len(items) - 1
	}
	if len(items) == 0 {
		m.SelectedIndex = 0
	}
}

func (m *MangaList) Next() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex = (m.SelectedIndex + 1) % len(m.Items)
}

func (m *MangaList) Prev() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex--
	if m.SelectedIndex < 0 {
		m.SelectedIndex = len(m.Items) - 1
	}
}

func (m *MangaList) Selected() *MangaListItem {
	if len(m.Items) == 0 || m.SelectedIndex >= len(m.Items) {
		return nil
	}
	return &m.Items[m.SelectedIndex]
}

// visibleRange keeps the selected card on screen. Cards are a fixed 6 rows
// tall including border and margin.
func (m *MangaList) visibleRange() (int, int) {
	per := m.Height / 6
	if per < 1 {
		per = 1
	}
	start := 0
	if m.SelectedIndex >= per {
		start = m.SelectedIndex - per + 1
	}
	end := start + per
	if end > len(m.Items) {
		end = len(m.Items)
	}
	return start, end
}

func (m *MangaList) View() string {
	if len(m.Items) == 0 {
		emptyMsg := styles.MutedStyle.Render("No manga in library. Press tab to search.")
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, emptyMsg)
	}

	var b strings.Builder
	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		item := m.Items[i]
		cardStyle := styles.CardStyle
		if i == m.SelectedIndex {
			cardStyle = styles.ActiveCardStyle
		}

		title := styles.SelectedStyle.Render(item.Manga.Name)
		if item.Manga.Status != "" {
			title += styles.MutedStyle.Render(" · " + item.Manga.Status)
		}

		chapters := styles.MutedStyle.Render(fmt.Sprintf(
			"Chapters: %d read / %d · %d exported · %s",
			item.ReadCount, item.ChapterCount, item.ExportedCount, item.Manga.Source,
		))

		card := cardStyle.Width(m.Width - 4).Render(lipgloss.JoinVertical(
			lipgloss.Left,
			title,
			chapters,
			continueLine(item, m.Width-10),
		))
		b.WriteString(card)
		b.WriteString("\n")
	}

	return b.String()
}

func continueLine(item MangaListItem, width int) string {
	if item.Last == nil {
		return styles.MutedStyle.Render("Not started")
	}
	last := item.Last
	label := fmt.Sprintf("Continue: %s, page %d/%d ", item.LastLabel, last.PageNumber, last.TotalPages)
	if last.Completed {
		label = fmt.Sprintf("Finished %s ", item.LastLabel)
	}
	barWidth := width - lipgloss.Width(label)
	if barWidth < 10 {
		return styles.StatusReading.Render(label)
	}
	return styles.StatusReading.Render(label) + SimpleProgress(last.PageNumber, last.TotalPages, barWidth)
}

package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all manga in your library",
	Long:  "Display the manga in your library with chapter counts and reading progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(consoleLogger())
		if err != nil {
			return err
		}
		defer e.Close()

		summaries, err := e.library.Summaries()
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("📚 No manga in library. Use 'mangaread search' to find manga to add.")
			return nil
		}

		columns := []table.Column{
			{Title: "Name", Width: 36},
			{Title: "ID", Width: 36},
			{Title: "Chapters", Width: 8},
			{Title: "Read", Width: 6},
			{Title: "Exported", Width: 8},
			{Title: "Last read", Width: 24},
		}

		rows := make([]table.Row, 0, len(summaries))
		for _, s := range summaries {
			last := "-"
			if s.Last != nil {
				last = fmt.Sprintf("%s p.%d/%d", s.LastLabel, s.Last.PageNumber, s.Last.TotalPages)
				if s.Last.Completed {
					last = s.LastLabel + " ✓"
				}
			}
			rows = append(rows, table.Row{
				truncateString(s.Manga.Name, 34),
				s.Manga.ID,
				fmt.Sprintf("%d", s.ChapterCount),
				fmt.Sprintf("%d", s.ReadCount),
				fmt.Sprintf("%d", s.ExportedCount),
				truncateString(last, 24),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Cell
		t.SetStyles(s)

		fmt.Printf("\n📚 Library (%d manga)\n\n", len(summaries))
		fmt.Println(t.View())
		return nil
	},
}

// truncateString cuts s to limit terminal cells; wide (CJK) runes count
// twice.
func truncateString(s string, limit int) string {
	return runewidth.Truncate(s, limit, "...")
}

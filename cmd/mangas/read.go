package cmd

import (
	"context"
	"fmt"

	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read [chapter-id]",
	Short: "Open a chapter in the reader",
	Long:  "Open a chapter in the terminal reader, resuming at the last page you read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapterID := args[0]
		mangaID, _ := cmd.Flags().GetString("manga")

		if mangaID == "" {
			e, err := openEnv(consoleLogger())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), reader.FetchTimeout)
			chapter, err := e.library.GetChapter(ctx, chapterID)
			cancel()
			e.Close()
			if err != nil {
				return fmt.Errorf("look up chapter: %w", err)
			}
			if chapter == nil {
				return fmt.Errorf("chapter %s not found", chapterID)
			}
			mangaID = chapter.MangaID
		}

		return runTUI(reader.ChapterPath(mangaID, chapterID))
	},
}

func init() {
	readCmd.Flags().String("manga", "", "manga id of the chapter (looked up when empty)")
}

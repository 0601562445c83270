package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [manga-name]",
	Short: "Add a manga to your library",
	Long:  "Search for a manga and add it with its chapter list to your library. Pages are fetched when a chapter is read or exported.",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		if id == "" && len(args) == 0 {
			return fmt.Errorf("a manga name or --id is required")
		}

		e, err := openEnv(consoleLogger())
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*reader.FetchTimeout)
		defer cancel()

		if id == "" {
			query := strings.Join(args, " ")
			fmt.Printf("🔍 Searching for '%s'...\n", query)
			results, err := e.library.Search(ctx, query)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("❌ No results found.")
				return nil
			}
			// the best match comes first
			id = results[0].ID
			fmt.Printf("✅ Found: %s (ID: %s)\n", results[0].Name, id)
		}

		manga, chapters, err := e.library.AddManga(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to add manga: %w", err)
		}

		fmt.Printf("✅ Added '%s' to library with %d chapters\n", manga.Name, len(chapters))
		if len(chapters) > 0 {
			oldest := chapters[len(chapters)-1]
			fmt.Printf("💡 Start reading with: mangaread read %s\n", oldest.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("id", "", "MangaDex id of the manga (skips the search)")
}

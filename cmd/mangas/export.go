package cmd

import (
	"fmt"

	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [chapter-id]",
	Short: "Export a chapter to EPUB",
	Long:  "Download the pages of a chapter and write them to an EPUB file for e-readers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := consoleLogger()
		e, err := openEnv(logger)
		if err != nil {
			return err
		}
		defer e.Close()

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = e.cfg.DownloadDir
		}

		downloader := services.NewDownloader(services.DefaultPageInterval, services.WithLogger(logger))
		defer downloader.Close()

		fmt.Printf("📥 Exporting chapter %s\n", args[0])
		path, err := e.library.ExportChapter(cmd.Context(), args[0], downloader, integrations.NewEPubBuilder(output),
			func(done, total int) {
				fmt.Printf("\r  %d/%d pages", done, total)
			})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("📖 EPUB created: %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output directory (default: download_dir from the config)")
}

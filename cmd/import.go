package cmd

import (
	"fmt"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bookgenre/internal/bookimport"
	"bookgenre/internal/services"
)

var booksImportCmd = &cobra.Command{
	Use:   "import <file-or-dir>...",
	Short: "Add books from JSON or JSON Lines files",
	Long: `Reads book records ({"id","title","author","usr_category","description"})
from .json arrays or .jsonl/.ndjson files and adds each one with a fresh
prediction. Directories are searched recursively. Existing IDs are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var total services.ImportSummary
		for _, root := range args {
			files, err := bookimport.Discover(ctx, root)
			if err != nil {
				return fmt.Errorf("failed to discover import files in %s: %w", root, err)
			}
			for _, f := range files {
				records, err := bookimport.ReadFile(f.Path)
				if err != nil {
					log.WithError(err).WithField("path", f.Path).Error("Failed to read import file")
					fmt.Fprintf(out, "  - %s: %s: %v\n", f.Path, color.RedString("ERROR"), err)
					continue
				}
				params := make([]services.AddBookParams, len(records))
				for i, r := range records {
					params[i] = services.AddBookParams{
						ID:          r.ID,
						Title:       r.Title,
						Author:      r.AuthorName(),
						UsrCategory: r.Category,
						Description: r.Description,
					}
				}
				sum, err := appInstance.BookService.Import(ctx, params)
				total.Added += sum.Added
				total.Skipped += sum.Skipped
				total.Failed += sum.Failed
				if err != nil {
					return fmt.Errorf("import %s: %w", f.Path, err)
				}
				fmt.Fprintf(out, "  - %s: %d added, %d skipped, %d invalid\n", f.Path, sum.Added, sum.Skipped, sum.Failed)
			}
		}

		fmt.Fprintf(out, "%s %d books (%d skipped, %d invalid)\n",
			color.GreenString("Imported"), total.Added, total.Skipped, total.Failed)
		return nil
	},
}

func init() {
	booksCmd.AddCommand(booksImportCmd)
}

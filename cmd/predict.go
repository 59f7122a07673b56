package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bookgenre/internal/clix"
	"bookgenre/pkg/genre"
)

var (
	predictTitle       string
	predictAuthors     string
	predictDescription string
	predictJSON        bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the genre of a book",
	Example: `  bookgenre predict --title Dune --authors "Frank Herbert" \
    --description "A desert planet and a noble family." --view ranked --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		view, err := clix.ParseView(cmd.Flags())
		if err != nil {
			return err
		}

		in := genre.Input{Title: predictTitle, Authors: predictAuthors, Description: predictDescription}
		pred, err := appInstance.PredictionService.Predict(cmd.Context(), in)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", color.RedString("ERROR"), err)
			pred = genre.Fallback()
		}

		out := cmd.OutOrStdout()
		if predictJSON {
			if perr := printJSON(out, pred.View(view)); perr != nil {
				return perr
			}
		} else {
			renderPrediction(out, pred)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVarP(&predictTitle, "title", "t", "", "Book title")
	predictCmd.Flags().StringVarP(&predictAuthors, "authors", "a", "", "Book authors")
	predictCmd.Flags().StringVarP(&predictDescription, "description", "d", "", "Book description")
	predictCmd.Flags().String("view", string(genre.ViewFlat), "JSON output shape: flat or ranked")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print the result as JSON")
}

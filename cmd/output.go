package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"bookgenre/internal/models"
	"bookgenre/pkg/genre"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// genreString colors a genre for terminal output; Unknown stands out.
func genreString(g string) string {
	if g == genre.Unknown {
		return color.YellowString(g)
	}
	return color.GreenString(g)
}

func renderPrediction(w io.Writer, pred *genre.Prediction) {
	fmt.Fprintf(w, "Genre: %s (confidence %.3f)\n", genreString(pred.Genre), pred.Confidence())
	if len(pred.Ranked) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Label", "Score"})
	table.SetBorder(true)
	for i, s := range pred.Ranked {
		table.Append([]string{fmt.Sprintf("%d", i+1), s.Label, fmt.Sprintf("%.4f", s.Score)})
	}
	table.Render()
}

func renderBooks(w io.Writer, books []*models.Book) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Author", "Category", "ML Category"})
	table.SetBorder(true)
	table.SetRowLine(true)
	for _, b := range books {
		table.Append([]string{b.ID, b.Title, b.Author, b.Category(), b.MLCategory})
	}
	table.Render()
}

func renderBook(w io.Writer, b *models.Book) {
	fmt.Fprintf(w, "ID:          %s\n", b.ID)
	fmt.Fprintf(w, "Title:       %s\n", b.Title)
	fmt.Fprintf(w, "Author:      %s\n", b.Author)
	fmt.Fprintf(w, "Category:    %s\n", genreString(b.Category()))
	fmt.Fprintf(w, "ML category: %s\n", b.MLCategory)
	if len(b.MLScores) > 0 {
		scores := make([]string, len(b.MLScores))
		for i, s := range b.MLScores {
			scores[i] = fmt.Sprintf("%.3f", s)
		}
		fmt.Fprintf(w, "ML scores:   [%s]\n", strings.Join(scores, ", "))
	}
	fmt.Fprintf(w, "Description: %s\n", b.Description)
}

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bookgenre/internal/clix"
	"bookgenre/internal/services"
)

var booksJSON bool

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage the book catalogue",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books, optionally filtered by title, author or category",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		filter, err := clix.ParseBookFilter(cmd.Flags())
		if err != nil {
			return err
		}
		books, err := appInstance.BookService.ListBooks(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}
		if booksJSON {
			return printJSON(cmd.OutOrStdout(), books)
		}
		if len(books) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No books found.")
			return nil
		}
		renderBooks(cmd.OutOrStdout(), books)
		return nil
	},
}

var booksGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		book, err := appInstance.BookService.GetBook(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if booksJSON {
			return printJSON(cmd.OutOrStdout(), book)
		}
		renderBook(cmd.OutOrStdout(), book)
		return nil
	},
}

var addParams services.AddBookParams

var booksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book and classify it",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		book, err := appInstance.BookService.AddBook(cmd.Context(), addParams)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s book %s (ML category: %s)\n",
			color.GreenString("Added"), book.ID, genreString(book.MLCategory))
		return nil
	},
}

var booksSetCategoryCmd = &cobra.Command{
	Use:   "set-category <id> <category>",
	Short: "Set the reader-chosen category of a book",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		book, err := appInstance.BookService.SetCategory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Book %s is now %s\n", book.ID, genreString(book.Category()))
		return nil
	},
}

var booksSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample books into an empty catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		n, err := appInstance.BookService.Seed(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("Catalogue not empty, nothing seeded."))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books.\n", n)
		return nil
	},
}

var reclassifyAsync bool

var booksReclassifyCmd = &cobra.Command{
	Use:   "reclassify <id>...",
	Short: "Run the model again for stored books",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		svc := appInstance.BookService
		out := cmd.OutOrStdout()

		failed := 0
		for _, id := range args {
			if reclassifyAsync {
				taskID, err := svc.EnqueueReclassify(cmd.Context(), id)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  - %s: %s: %v\n", id, color.RedString("ERROR"), err)
					continue
				}
				fmt.Fprintf(out, "  - %s: %s (task %s)\n", id, color.GreenString("Enqueued"), taskID)
				continue
			}
			book, err := svc.Reclassify(cmd.Context(), id)
			if err != nil {
				failed++
				fmt.Fprintf(out, "  - %s: %s: %v\n", id, color.RedString("ERROR"), err)
				continue
			}
			fmt.Fprintf(out, "  - %s: %s\n", id, genreString(book.MLCategory))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d books failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
	booksCmd.AddCommand(booksListCmd, booksGetCmd, booksAddCmd, booksSetCategoryCmd, booksSeedCmd, booksReclassifyCmd)
	booksCmd.PersistentFlags().BoolVar(&booksJSON, "json", false, "Print results as JSON")

	booksListCmd.Flags().String("title", "", "Filter by title substring")
	booksListCmd.Flags().String("author", "", "Filter by author substring")
	booksListCmd.Flags().String("category", "", "Filter by user category (exact)")
	booksListCmd.Flags().IntP("limit", "l", 0, "Maximum number of books (0 for all)")
	booksListCmd.Flags().IntP("offset", "o", 0, "Number of books to skip")

	booksAddCmd.Flags().StringVar(&addParams.ID, "id", "", "Book ID (generated when empty)")
	booksAddCmd.Flags().StringVarP(&addParams.Title, "title", "t", "", "Book title")
	booksAddCmd.Flags().StringVarP(&addParams.Author, "author", "a", "", "Book author")
	booksAddCmd.Flags().StringVarP(&addParams.Description, "description", "d", "", "Book description")
	booksAddCmd.Flags().StringVar(&addParams.UsrCategory, "category", "", "Reader-chosen category")

	booksReclassifyCmd.Flags().BoolVar(&reclassifyAsync, "async", false, "Queue the work for the worker instead of running it here")
}

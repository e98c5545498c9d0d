package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/clipshelf/clipshelf/internal/config"
	"github.com/clipshelf/clipshelf/internal/database"
	"github.com/clipshelf/clipshelf/internal/database/books"
	"github.com/clipshelf/clipshelf/internal/entities"
)

// BooksCommand lists books in the library, optionally filtered by a search
// query.
type BooksCommand struct {
	DatabasePath string
	Search       string
}

func NewBooksCommand() *BooksCommand {
	return &BooksCommand{}
}

func (cmd *BooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("books", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the clippings database")
	fs.StringVar(&cmd.Search, "search", "", "Filter by title or author (case-insensitive)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s books [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List books in the clippings library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *BooksCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)

	var library []entities.Book
	if cmd.Search != "" {
		library, err = repo.SearchBooks(cmd.Search)
	} else {
		library, err = repo.GetAllBooks()
	}
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if len(library) == 0 {
		fmt.Println("No books found.")
		return nil
	}

	for _, book := range library {
		clippings, err := repo.GetClippingsForBook(book.ID)
		if err != nil {
			return fmt.Errorf("failed to count clippings: %w", err)
		}

		author := book.Author
		if author == "" {
			author = "(no author)"
		}
		fmt.Printf("%4d  %s by %s (%d clippings)\n", book.ID, book.Title, author, len(clippings))
	}

	return nil
}

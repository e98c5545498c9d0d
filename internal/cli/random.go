package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/clipshelf/clipshelf/internal/config"
	"github.com/clipshelf/clipshelf/internal/database"
	"github.com/clipshelf/clipshelf/internal/database/books"
)

// RandomCommand prints one random highlight or note.
type RandomCommand struct {
	DatabasePath string
	BookID       uint
}

func NewRandomCommand() *RandomCommand {
	return &RandomCommand{}
}

func (cmd *RandomCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("random", flag.ExitOnError)

	var bookID uint64
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the clippings database")
	fs.Uint64Var(&bookID, "book", 0, "Limit to one book (see 'books')")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s random [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print one random highlight or note from the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.BookID = uint(bookID)
	return nil
}

func (cmd *RandomCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)

	clipping, err := repo.GetRandomClipping(cmd.BookID)
	if errors.Is(err, books.ErrNotFound) {
		fmt.Println("No highlights or notes in the library yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pick a quote: %w", err)
	}

	book, err := repo.GetBookByID(clipping.BookID)
	if err != nil {
		return fmt.Errorf("failed to load book %d: %w", clipping.BookID, err)
	}

	fmt.Printf("%q\n", clipping.Text)
	if book.Author != "" {
		fmt.Printf("  - %s, %s\n", book.Author, book.Title)
	} else {
		fmt.Printf("  - %s\n", book.Title)
	}
	return nil
}

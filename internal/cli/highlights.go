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

// HighlightsCommand prints the clippings stored for one book.
type HighlightsCommand struct {
	DatabasePath string
	BookID       uint
}

func NewHighlightsCommand() *HighlightsCommand {
	return &HighlightsCommand{}
}

func (cmd *HighlightsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("highlights", flag.ExitOnError)

	var bookID uint64
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the clippings database")
	fs.Uint64Var(&bookID, "book", 0, "Book ID to show highlights for (required, see 'books')")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s highlights -book <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show the clippings stored for one book.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.BookID = uint(bookID)

	if cmd.BookID == 0 {
		return fmt.Errorf("required flag -book not provided")
	}
	return nil
}

func (cmd *HighlightsCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)

	book, err := repo.GetBookByID(cmd.BookID)
	if err != nil {
		return fmt.Errorf("failed to load book %d: %w", cmd.BookID, err)
	}

	author := book.Author
	if author == "" {
		author = "(no author)"
	}
	fmt.Printf("%s by %s\n", book.Title, author)
	fmt.Println()

	if len(book.Clippings) == 0 {
		fmt.Println("No clippings stored for this book.")
		return nil
	}

	for _, clipping := range book.Clippings {
		position := describePosition(clipping)
		switch clipping.Type {
		case entities.ClipTypeBookmark:
			fmt.Printf("[bookmark] %s\n", position)
		case entities.ClipTypeNote:
			fmt.Printf("[note] %s\n  %s\n", position, clipping.Text)
		default:
			fmt.Printf("[highlight] %s\n  %s\n", position, clipping.Text)
		}
		fmt.Println()
	}

	return nil
}

func describePosition(clipping entities.Clipping) string {
	switch {
	case clipping.Page > 0 && clipping.Location > 0:
		return fmt.Sprintf("page %d, location %d", clipping.Page, clipping.Location)
	case clipping.Page > 0:
		return fmt.Sprintf("page %d", clipping.Page)
	case clipping.Location > 0:
		return fmt.Sprintf("location %d", clipping.Location)
	default:
		return "unknown position"
	}
}

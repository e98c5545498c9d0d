// Package cli implements the command-line subcommands.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clipshelf/clipshelf/internal/config"
	"github.com/clipshelf/clipshelf/internal/database"
	"github.com/clipshelf/clipshelf/internal/database/books"
	"github.com/clipshelf/clipshelf/internal/importer"
	"github.com/clipshelf/clipshelf/internal/kindle"
	"github.com/clipshelf/clipshelf/internal/matching"
)

// ImportCommand imports a Kindle 'My Clippings.txt' file into the database.
type ImportCommand struct {
	ClippingsPath string
	DatabasePath  string
	Threshold     float64
	Verbose       bool
	DryRun        bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.ClippingsPath, "file", "", "Path to Kindle 'My Clippings.txt' file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the clippings database")
	fs.Float64Var(&cmd.Threshold, "threshold", matching.DefaultThreshold, "Title similarity threshold for matching existing books (0-1]")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse and report without writing to the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import clippings from a Kindle 'My Clippings.txt' file.\n\n")
		fmt.Fprintf(os.Stderr, "The clippings file is typically found at:\n")
		fmt.Fprintf(os.Stderr, "  /Volumes/Kindle/documents/My Clippings.txt\n\n")
		fmt.Fprintf(os.Stderr, "Re-importing the same file is safe: clippings already in the database\n")
		fmt.Fprintf(os.Stderr, "are detected and skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import from connected Kindle device:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file \"/Volumes/Kindle/documents/My Clippings.txt\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Preview what would be imported:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file \"My Clippings.txt\" -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ClippingsPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Kindle Import")
	fmt.Println("=============")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	if _, err := os.Stat(cmd.ClippingsPath); os.IsNotExist(err) {
		return fmt.Errorf("clippings file not found: %s", cmd.ClippingsPath)
	}

	fmt.Printf("File: %s\n", cmd.ClippingsPath)

	if cmd.DryRun {
		return cmd.runDryRun()
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath

	fmt.Printf("Database: %s\n", cmd.DatabasePath)

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	imp := importer.New(repo, db, cmd.Threshold)

	fmt.Println("\nImporting clippings...")
	summary, importErr := imp.ImportFile(cmd.ClippingsPath)

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Blocks processed:   %d\n", summary.Processed)
	fmt.Printf("Clippings added:    %d\n", summary.Added)
	fmt.Printf("Duplicates skipped: %d\n", summary.Duplicates)
	fmt.Printf("Malformed skipped:  %d\n", summary.Malformed)
	fmt.Printf("Books touched:      %d (%d new)\n", summary.BooksTouched, summary.BooksCreated)

	if len(summary.Failures) > 0 && cmd.Verbose {
		fmt.Printf("\n%d blocks could not be parsed:\n", len(summary.Failures))
		for _, failure := range summary.Failures {
			fmt.Printf("  [SKIPPED] %s\n", failure)
		}
	}

	if importErr != nil {
		return fmt.Errorf("import aborted: %w", importErr)
	}

	fmt.Println("\nImport complete!")
	return nil
}

// runDryRun parses the file and reports what an import would do, without
// touching the database.
func (cmd *ImportCommand) runDryRun() error {
	file, err := os.Open(cmd.ClippingsPath)
	if err != nil {
		return fmt.Errorf("failed to open clippings file: %w", err)
	}
	defer file.Close()

	parser := kindle.NewParser()
	result, err := parser.Parse(file)
	if err != nil {
		return fmt.Errorf("failed to parse clippings: %w", err)
	}

	fmt.Printf("\nParsed %d blocks: %d entries, %d malformed\n",
		result.Blocks, len(result.Entries), len(result.Skipped))

	if cmd.Verbose {
		byBook := make(map[string]int)
		var order []string
		for _, entry := range result.Entries {
			key := entry.Title
			if entry.Author != "" {
				key += " by " + entry.Author
			}
			if _, seen := byBook[key]; !seen {
				order = append(order, key)
			}
			byBook[key]++
		}

		fmt.Println("\n=== Books Found ===")
		for i, key := range order {
			fmt.Printf("%d. %s (%d clippings)\n", i+1, key, byBook[key])
		}

		if len(result.Skipped) > 0 {
			fmt.Println("\n=== Skipped Blocks ===")
			for _, skipped := range result.Skipped {
				fmt.Printf("  near line %d: %s\n", skipped.Line, skipped.Reason)
			}
		}
	}

	fmt.Println("\nDry run complete. Use without -dry-run to import.")
	return nil
}

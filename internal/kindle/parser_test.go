package kindle

import (
	"strings"
	"testing"
	"time"

	"github.com/clipshelf/clipshelf/internal/entities"
)

func TestParser_Parse_BasicHighlight(t *testing.T) {
	input := `The_Power_of_Now (Eckhart Tolle)
- Your Highlight on page 8 | Location 64-64 | Added on Tuesday, April 15, 2025 10:16:21 PM

would change for the better. Values would shift in the flotsam
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Blocks != 1 {
		t.Errorf("expected 1 block, got %d", result.Blocks)
	}

	entry := result.Entries[0]
	if entry.Title != "The_Power_of_Now" {
		t.Errorf("expected title 'The_Power_of_Now', got '%s'", entry.Title)
	}
	if entry.Author != "Eckhart Tolle" {
		t.Errorf("expected author 'Eckhart Tolle', got '%s'", entry.Author)
	}
	if entry.Type != entities.ClipTypeHighlight {
		t.Errorf("expected type highlight, got '%s'", entry.Type)
	}
	if entry.Page != 8 {
		t.Errorf("expected page 8, got %d", entry.Page)
	}
	if entry.Location != 64 {
		t.Errorf("expected location 64, got %d", entry.Location)
	}
	if entry.LocationEnd != 64 {
		t.Errorf("expected location end 64, got %d", entry.LocationEnd)
	}
	if entry.Text != "would change for the better. Values would shift in the flotsam" {
		t.Errorf("unexpected text: %s", entry.Text)
	}
	if len(entry.ContentHash) != 64 {
		t.Errorf("expected 64-char hex hash, got '%s'", entry.ContentHash)
	}

	expected := time.Date(2025, time.April, 15, 22, 16, 21, 0, time.UTC)
	if !entry.AddedAt.Equal(expected) {
		t.Errorf("expected added at %v, got %v", expected, entry.AddedAt)
	}
}

func TestParser_Parse_Note(t *testing.T) {
	input := `The_Power_of_Now (Eckhart Tolle)
- Your Note on page 31 | Location 307 | Added on Tuesday, April 15, 2025 11:33:26 PM

Watch the thinker or be present in the moment
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.Type != entities.ClipTypeNote {
		t.Errorf("expected type note, got '%s'", entry.Type)
	}
	if entry.Page != 31 {
		t.Errorf("expected page 31, got %d", entry.Page)
	}
	if entry.Location != 307 {
		t.Errorf("expected location 307, got %d", entry.Location)
	}
	if entry.Text != "Watch the thinker or be present in the moment" {
		t.Errorf("unexpected text: %s", entry.Text)
	}
}

func TestParser_Parse_BookmarkIsKept(t *testing.T) {
	input := `Fahrenheit 451 (Ray Bradbury)
- Your Bookmark at location 346 | Added on Saturday, 26 March 2016 15:46:21


==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.Type != entities.ClipTypeBookmark {
		t.Errorf("expected type bookmark, got '%s'", entry.Type)
	}
	if entry.Location != 346 {
		t.Errorf("expected location 346, got %d", entry.Location)
	}
	if entry.Text != "" {
		t.Errorf("expected empty text for bookmark, got '%s'", entry.Text)
	}
	if entry.ContentHash == "" {
		t.Error("expected bookmark to carry a content hash")
	}
}

func TestParser_Parse_LocationOnlyFormat(t *testing.T) {
	input := `Fahrenheit 451 (Ray Bradbury)
- Your Highlight at location 784-785 | Added on Saturday, 26 March 2016 18:37:26

Who knows who might be the target of the well-read man?
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.Location != 784 {
		t.Errorf("expected location 784, got %d", entry.Location)
	}
	if entry.LocationEnd != 785 {
		t.Errorf("expected location end 785, got %d", entry.LocationEnd)
	}
	if entry.Page != 0 {
		t.Errorf("expected page 0, got %d", entry.Page)
	}
}

func TestParser_Parse_NoAuthor(t *testing.T) {
	input := `Harry_Potter_und_die_Kammer_des_Schreckens
- Your Highlight on page 207-207 | Added on Monday, April 21, 2025 8:55:24 PM

Harry drehte sich auf die Seite
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.Title != "Harry_Potter_und_die_Kammer_des_Schreckens" {
		t.Errorf("expected title without author, got '%s'", entry.Title)
	}
	if entry.Author != "" {
		t.Errorf("expected empty author, got '%s'", entry.Author)
	}
	if entry.Page != 207 {
		t.Errorf("expected page 207, got %d", entry.Page)
	}
	if entry.PageEnd != 207 {
		t.Errorf("expected page end 207, got %d", entry.PageEnd)
	}
}

func TestParser_Parse_AuthorLastFirstNormalized(t *testing.T) {
	input := `The Lord of the Rings (Tolkien, J. R. R.)
- Your Highlight at location 100-105 | Added on Saturday, 26 March 2016 18:37:26

Not all those who wander are lost.
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	if result.Entries[0].Author != "J. R. R. Tolkien" {
		t.Errorf("expected normalized author 'J. R. R. Tolkien', got '%s'", result.Entries[0].Author)
	}
}

func TestParser_Parse_MultiLineHighlight(t *testing.T) {
	input := `Test Book (Test Author)
- Your Highlight on page 1 | Location 10-15 | Added on Wednesday, January 1, 2025 12:00:00 PM

This highlight spans
multiple lines of text
that should be preserved.
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	expected := "This highlight spans\nmultiple lines of text\nthat should be preserved."
	if result.Entries[0].Text != expected {
		t.Errorf("unexpected text: %q", result.Entries[0].Text)
	}
}

func TestParser_Parse_MalformedBlocksAreReported(t *testing.T) {
	input := `Malformed Entry
Just one line of junk below the title.
==========
Another Book (Some Author)
- Invalid Metadata Line here Added on Tuesday, 1 April 2025 01:30:00 PM

Content for malformed metadata.
==========
Good Book (Good Author)
- Your Highlight at location 42-43 | Added on Saturday, 26 March 2016 18:37:26

Valid text that must survive the malformed neighbours.
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Blocks != 3 {
		t.Errorf("expected 3 blocks, got %d", result.Blocks)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected 2 skipped blocks, got %d", len(result.Skipped))
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].Title != "Good Book" {
		t.Errorf("expected the valid block to be parsed, got '%s'", result.Entries[0].Title)
	}
	for _, skipped := range result.Skipped {
		if skipped.Reason == "" {
			t.Error("expected a reason for every skipped block")
		}
	}
}

func TestParser_Parse_MissingTrailingSeparator(t *testing.T) {
	input := `Test Book (Test Author)
- Your Highlight on page 1 | Location 10 | Added on Wednesday, January 1, 2025 12:00:00 PM

Last entry without trailing separator.`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].Text != "Last entry without trailing separator." {
		t.Errorf("unexpected text: %s", result.Entries[0].Text)
	}
}

func TestParser_Parse_IdenticalBlocksShareHash(t *testing.T) {
	block := `Test Book (Test Author)
- Your Highlight on page 1 | Location 10 | Added on Wednesday, January 1, 2025 12:00:00 PM

Same text both times.
==========
`
	input := block + block

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].ContentHash != result.Entries[1].ContentHash {
		t.Error("expected identical blocks to share a content hash")
	}
}

func TestParser_Parse_TitleVariantsShareHash(t *testing.T) {
	input := `Book A (Some Author)
- Your Highlight on page 1 | Location 10 | Added on Wednesday, January 1, 2025 12:00:00 PM

Same text both times.
==========
book a  (Some Author)
- Your Highlight on page 1 | Location 10 | Added on Thursday, January 2, 2025 9:00:00 AM

Same text both times.
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].ContentHash != result.Entries[1].ContentHash {
		t.Error("expected the same clipping under a title variant to share a content hash")
	}
}

func TestParser_Parse_DistinctBlocksHaveDistinctHashes(t *testing.T) {
	input := `Test Book (Test Author)
- Your Highlight on page 1 | Location 10 | Added on Wednesday, January 1, 2025 12:00:00 PM

First text.
==========
Test Book (Test Author)
- Your Highlight on page 2 | Location 20 | Added on Wednesday, January 1, 2025 12:05:00 PM

Second text.
==========
`

	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].ContentHash == result.Entries[1].ContentHash {
		t.Error("expected distinct blocks to have distinct content hashes")
	}
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	parser := NewParser()
	result, err := parser.Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 || len(result.Skipped) != 0 {
		t.Errorf("expected empty result, got %d entries, %d skipped", len(result.Entries), len(result.Skipped))
	}
}

package kindle

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clipshelf/clipshelf/internal/entities"
)

// Entry is a single parsed clipping from My Clippings.txt.
type Entry struct {
	Title       string
	Author      string
	Type        entities.ClipType
	Page        int
	PageEnd     int
	Location    int
	LocationEnd int
	AddedAt     time.Time
	Text        string

	// ContentHash identifies the clipping for exact duplicate detection
	// across re-imports. See contentHash for what it covers.
	ContentHash string
}

// SkippedBlock describes a malformed block that the parser gave up on.
type SkippedBlock struct {
	Line   int // line number near the end of the block
	Reason string
}

// Result holds parsed entries plus a report of what could not be parsed.
// Malformed blocks are never fatal: they are skipped and reported here.
type Result struct {
	Entries []Entry
	Skipped []SkippedBlock
	Blocks  int
}

// Parser parses the Kindle My Clippings.txt format.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

const entrySeparator = "=========="

var (
	// Matches: "- Your Highlight on page 8 | Location 64-64 | Added on Tuesday, April 15, 2025 10:16:21 PM"
	// or: "- Your Note on page 31 | Location 307 | Added on Tuesday, April 15, 2025 11:33:26 PM"
	// or: "- Your Highlight at location 784-785 | Added on Saturday, 26 March 2016 18:37:26"
	// or: "- Your Bookmark at location 346 | Added on Saturday, 26 March 2016 15:46:21"
	metadataPattern = regexp.MustCompile(`^- Your (Highlight|Note|Bookmark)`)

	// Page patterns: "on page 8" or "on page 207-207"
	pagePattern = regexp.MustCompile(`(?i)(?:on )?page (\d+)(?:-(\d+))?`)

	// Location patterns: "Location 64-64" or "at location 784-785"
	locationPattern = regexp.MustCompile(`(?i)(?:at )?location (\d+)(?:-(\d+))?`)

	// Date layouts observed in the wild, firmware dependent
	datePatterns = []string{
		"Added on Monday, January 2, 2006 3:04:05 PM",
		"Added on Monday, January 2, 2006 15:04:05",
		"Added on Monday, 2 January 2006 3:04:05 PM",
		"Added on Monday, 2 January 2006 15:04:05",
	}

	// Title with author: "Book Title (Author Name)"
	// Some books don't have author in parentheses
	titleAuthorPattern = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)
)

// Parse reads a clippings file and returns the parsed entries together with
// a report of skipped blocks. The only error returned is a read error.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	result := &Result{}
	var currentLines []string
	lineNo := 0

	flush := func() {
		if len(currentLines) == 0 {
			return
		}
		result.Blocks++
		entry, err := p.parseBlock(currentLines)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedBlock{
				Line:   lineNo,
				Reason: err.Error(),
			})
		} else {
			result.Entries = append(result.Entries, *entry)
		}
		currentLines = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			// Some devices write a BOM before the first title line
			line = strings.TrimPrefix(line, "\uFEFF")
		}

		if line == entrySeparator {
			flush()
			continue
		}
		currentLines = append(currentLines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading clippings: %w", err)
	}

	// Last block if the file doesn't end with a separator
	flush()

	return result, nil
}

func (p *Parser) parseBlock(lines []string) (*Entry, error) {
	if len(lines) < 2 {
		return nil, fmt.Errorf("block too short (%d lines)", len(lines))
	}

	// First line: Title (Author) or just Title
	titleLine := strings.TrimSpace(lines[0])
	if titleLine == "" {
		return nil, fmt.Errorf("empty title line")
	}

	title, author := parseTitleAuthor(titleLine)

	// Second line: type, page, location, date
	metadataLine := strings.TrimSpace(lines[1])
	if !metadataPattern.MatchString(metadataLine) {
		return nil, fmt.Errorf("invalid metadata line %q", metadataLine)
	}

	clipType := parseClipType(metadataLine)
	page, pageEnd := parsePageRange(metadataLine)
	location, locationEnd := parseLocationRange(metadataLine)
	addedAt := parseDate(metadataLine)

	// Remaining lines (after blank line): text content
	var textLines []string
	startContent := false
	for i := 2; i < len(lines); i++ {
		line := lines[i]
		if !startContent && strings.TrimSpace(line) == "" {
			startContent = true
			continue
		}
		if startContent || strings.TrimSpace(line) != "" {
			startContent = true
			textLines = append(textLines, line)
		}
	}

	text := strings.TrimSpace(strings.Join(textLines, "\n"))

	// Highlights and notes carry text; bookmarks legitimately don't
	if text == "" && clipType != entities.ClipTypeBookmark {
		return nil, fmt.Errorf("empty content for %s", clipType)
	}

	return &Entry{
		Title:       title,
		Author:      normalizeAuthor(author),
		Type:        clipType,
		Page:        page,
		PageEnd:     pageEnd,
		Location:    location,
		LocationEnd: locationEnd,
		AddedAt:     addedAt,
		Text:        text,
		ContentHash: contentHash(clipType, page, pageEnd, location, locationEnd, text),
	}, nil
}

// contentHash hashes what makes a clipping itself: its type, its position
// on the device, and its text. The title line is deliberately excluded so
// that title variants of the same clipping dedupe, and so is the timestamp,
// which devices rewrite when a highlight is re-recorded.
func contentHash(clipType entities.ClipType, page, pageEnd, location, locationEnd int, text string) string {
	payload := fmt.Sprintf("%s|%d-%d|%d-%d|%s", clipType, page, pageEnd, location, locationEnd, text)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func parseTitleAuthor(line string) (title, author string) {
	matches := titleAuthorPattern.FindStringSubmatch(line)
	if len(matches) == 3 {
		return strings.TrimSpace(matches[1]), strings.TrimSpace(matches[2])
	}
	// No author in parentheses, use whole line as title
	return strings.TrimSpace(line), ""
}

// normalizeAuthor flips "Lastname, Firstname" into "Firstname Lastname",
// the other common form exported by Kindle devices.
func normalizeAuthor(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if idx := strings.Index(raw, ","); idx >= 0 {
		last := strings.TrimSpace(raw[:idx])
		first := strings.TrimSpace(raw[idx+1:])
		if first != "" && last != "" {
			return first + " " + last
		}
	}
	return raw
}

func parseClipType(line string) entities.ClipType {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "your note"):
		return entities.ClipTypeNote
	case strings.Contains(lower, "your bookmark"):
		return entities.ClipTypeBookmark
	default:
		return entities.ClipTypeHighlight
	}
}

func parsePageRange(line string) (page, pageEnd int) {
	matches := pagePattern.FindStringSubmatch(line)
	if len(matches) >= 2 {
		page, _ = strconv.Atoi(matches[1])
		if len(matches) >= 3 && matches[2] != "" {
			pageEnd, _ = strconv.Atoi(matches[2])
		}
	}
	return
}

func parseLocationRange(line string) (location, locationEnd int) {
	matches := locationPattern.FindStringSubmatch(line)
	if len(matches) >= 2 {
		location, _ = strconv.Atoi(matches[1])
		if len(matches) >= 3 && matches[2] != "" {
			locationEnd, _ = strconv.Atoi(matches[2])
		}
	}
	return
}

func parseDate(line string) time.Time {
	idx := strings.Index(strings.ToLower(line), "added on")
	if idx == -1 {
		return time.Time{}
	}

	dateStr := "Added on" + line[idx+8:]
	dateStr = strings.TrimSpace(dateStr)

	for _, pattern := range datePatterns {
		t, err := time.Parse(pattern, dateStr)
		if err == nil {
			return t
		}
	}

	return time.Time{}
}

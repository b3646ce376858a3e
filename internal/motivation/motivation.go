// Package motivation picks the motivational quote shown at the start of a
// study day.
package motivation

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"
)

// LastShownKey is the settings key holding the day a quote was last shown.
const LastShownKey = "motivation.last_shown"

//go:embed quotes.txt
var builtinQuotes string

// Quote is one line of motivation and who said it.
type Quote struct {
	Text   string
	Author string
}

// String formats the quote for a single notice line.
func (q Quote) String() string {
	if q.Author == "" {
		return q.Text
	}
	return fmt.Sprintf("%q — %s", q.Text, q.Author)
}

// Builtin returns the bundled quote list.
func Builtin() []Quote {
	quotes, err := ParseQuotes(strings.NewReader(builtinQuotes))
	if err != nil {
		panic(fmt.Sprintf("motivation: bundled quotes: %v", err))
	}
	return quotes
}

// LoadQuotes reads "text | author" lines from the provided file path.
func LoadQuotes(path string) ([]Quote, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only quote list.
			_ = cerr
		}
	}()
	quotes, err := ParseQuotes(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return quotes, nil
}

// ParseQuotes reads one quote per line. Blank lines and lines starting with
// '#' are skipped; the author after the last '|' is optional.
func ParseQuotes(r io.Reader) ([]Quote, error) {
	var quotes []Quote
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q := Quote{Text: line}
		if idx := strings.LastIndex(line, "|"); idx >= 0 {
			q.Text = strings.TrimSpace(line[:idx])
			q.Author = strings.TrimSpace(line[idx+1:])
		}
		if q.Text == "" {
			continue
		}
		quotes = append(quotes, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("quote list is empty")
	}
	return quotes, nil
}

// Generator picks quotes at random.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick selects one quote uniformly. It reports false for an empty list.
func (g *Generator) Pick(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	return quotes[g.rnd.Intn(len(quotes))], true
}

// DueToday reports whether a quote should be shown on the day of now, given
// the day (YYYY-MM-DD) one was last shown.
func DueToday(lastShown string, now time.Time) bool {
	return lastShown != now.Format("2006-01-02")
}

// Settings is the key/value storage remembering when a quote was shown.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
}

// ShowOnce picks a quote if none was shown yet on the day of now and records
// the day. It reports false when today's quote was already shown.
func ShowOnce(ctx context.Context, settings Settings, gen *Generator, quotes []Quote, now time.Time) (Quote, bool, error) {
	last, _, err := settings.GetSetting(ctx, LastShownKey)
	if err != nil {
		return Quote{}, false, fmt.Errorf("failed to read %s: %w", LastShownKey, err)
	}
	if !DueToday(last, now) {
		return Quote{}, false, nil
	}
	q, ok := gen.Pick(quotes)
	if !ok {
		return Quote{}, false, nil
	}
	if err := settings.PutSetting(ctx, LastShownKey, now.Format("2006-01-02")); err != nil {
		return Quote{}, false, fmt.Errorf("failed to write %s: %w", LastShownKey, err)
	}
	return q, true, nil
}

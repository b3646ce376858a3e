package motivation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuotes(t *testing.T) {
	quotes, err := ParseQuotes(strings.NewReader(`
# comment
Service Before Self. | Indian Army Motto
Keep going.
a | b | Someone
 | nobody
`))
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, Quote{Text: "Service Before Self.", Author: "Indian Army Motto"}, quotes[0])
	assert.Equal(t, Quote{Text: "Keep going."}, quotes[1])
	assert.Equal(t, Quote{Text: "a | b", Author: "Someone"}, quotes[2])

	_, err = ParseQuotes(strings.NewReader("# only comments\n\n"))
	assert.Error(t, err)
}

func TestLoadQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Touch the sky with glory. | Indian Air Force Motto\n"), 0o644))
	quotes, err := LoadQuotes(path)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, `"Touch the sky with glory." — Indian Air Force Motto`, quotes[0].String())

	_, err = LoadQuotes(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestBuiltinAndPick(t *testing.T) {
	quotes := Builtin()
	require.NotEmpty(t, quotes)
	for _, q := range quotes {
		assert.NotEmpty(t, q.Author, q.Text)
	}

	gen := NewSeeded(1)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		q, ok := gen.Pick(quotes)
		require.True(t, ok)
		seen[q.Text] = true
	}
	assert.Greater(t, len(seen), 1)

	_, ok := gen.Pick(nil)
	assert.False(t, ok)
}

func TestDueToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.True(t, DueToday("", now))
	assert.True(t, DueToday("2024-03-09", now))
	assert.False(t, DueToday("2024-03-10", now))
}

type memSettings map[string]string

func (m memSettings) GetSetting(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memSettings) PutSetting(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestShowOnceSkipsSameDay(t *testing.T) {
	ctx := context.Background()
	settings := memSettings{}
	gen := NewSeeded(7)
	quotes := []Quote{{Text: "Service Before Self.", Author: "Indian Army Motto"}}
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	q, ok, err := ShowOnce(ctx, settings, gen, quotes, now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, quotes[0], q)
	assert.Equal(t, "2024-03-10", settings[LastShownKey])

	_, ok, err = ShowOnce(ctx, settings, gen, quotes, now.Add(10*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ShowOnce(ctx, settings, gen, quotes, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, ok)
}

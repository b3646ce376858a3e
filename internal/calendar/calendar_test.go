package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/studylog/internal/model"
)

func TestMonthGridSundayFirst(t *testing.T) {
	weeks := MonthGrid(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC))
	require.Len(t, weeks, 6)
	for i := 0; i < 5; i++ {
		assert.True(t, weeks[0][i].IsZero(), "cell %d before March 1", i)
	}
	assert.Equal(t, 1, weeks[0][5].Day())
	assert.Equal(t, time.Friday, weeks[0][5].Weekday())
	assert.Equal(t, 31, weeks[5][0].Day())
	assert.True(t, weeks[5][1].IsZero())

	feb := MonthGrid(time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, feb, 4)
	assert.Equal(t, 1, feb[0][0].Day())
	assert.Equal(t, 28, feb[3][6].Day())
}

func TestMarkers(t *testing.T) {
	markers := Markers([]model.Task{
		{Date: "2024-03-10", Completed: true},
		{Date: "2024-03-10"},
		{Date: "2024-03-11", Completed: true},
		{Date: "2024-03-11", Completed: true},
		{Date: "2024-03-12"},
	})
	assert.Equal(t, MarkerPending, markers["2024-03-10"])
	assert.Equal(t, MarkerCleared, markers["2024-03-11"])
	assert.Equal(t, MarkerPending, markers["2024-03-12"])
	assert.Equal(t, MarkerNone, markers["2024-03-13"])
}

func TestRenderPlainText(t *testing.T) {
	month := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	markers := map[string]Marker{
		"2024-03-01": MarkerCleared,
		"2024-03-04": MarkerPending,
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, month, month.AddDate(0, 0, 9), time.Time{}, markers))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+1+6+1)
	assert.Equal(t, "March 2024", strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "Su  Mo  Tu"))
	assert.Equal(t, strings.Repeat(" ", 20)+" 1✓  2", lines[2])
	assert.Contains(t, lines[3], " 4•")
	assert.Equal(t, "• pending  ✓ cleared", lines[8])
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/logger"
)

func logOn(date string, level int, reader string) domain.ReadingLog {
	return domain.ReadingLog{Date: date, BookID: "book-1", Title: "Frog", Level: level, Reader: reader}
}

func TestSummarize(t *testing.T) {
	logs := []domain.ReadingLog{
		logOn("2025-03-14", 1, "Minji"),
		logOn("2025-03-14", 2, "Jiho"),
		logOn("2025-03-13", 2, "Minji"),
		logOn("2025-02-13", 3, "Minji"), // 29 days back, first day of the window
		logOn("2025-02-12", 3, ""),      // outside the window
		logOn("2025-01-01", 1, "Grandma"),
	}

	sum := Summarize(logs, []string{"Minji", "Jiho", "Sora"}, testDay)

	assert.Equal(t, 2, sum.Today)
	assert.Equal(t, 6, sum.Total)

	require.Len(t, sum.Daily, TrendDays)
	assert.Equal(t, DayCount{Date: "2025-02-13", Reads: 1}, sum.Daily[0])
	assert.Equal(t, DayCount{Date: "2025-03-13", Reads: 1}, sum.Daily[TrendDays-2])
	assert.Equal(t, DayCount{Date: "2025-03-14", Reads: 2}, sum.Daily[TrendDays-1])
	assert.Equal(t, 0, sum.Daily[10].Reads)

	assert.Equal(t, []LevelCount{{Level: 1, Reads: 2}, {Level: 2, Reads: 2}, {Level: 3, Reads: 2}}, sum.ByLevel)
	assert.Equal(t, []ReaderCount{
		{Reader: "Minji", Reads: 3},
		{Reader: "Jiho", Reads: 1},
		{Reader: "Sora", Reads: 0},
		{Reader: "Grandma", Reads: 1},
	}, sum.ByReader)
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil, []string{"Minji"}, testDay)

	assert.Zero(t, sum.Today)
	assert.Zero(t, sum.Total)
	assert.Len(t, sum.Daily, TrendDays)
	assert.Empty(t, sum.ByLevel)
	assert.Equal(t, []ReaderCount{{Reader: "Minji"}}, sum.ByReader)
}

func TestSummarize_MonthBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 5, 0, 0, time.Local)
	sum := Summarize(nil, nil, now)

	assert.Equal(t, "2025-01-31", sum.Daily[0].Date)
	assert.Equal(t, "2025-03-01", sum.Daily[TrendDays-1].Date)
}

func TestStatsService_Summary(t *testing.T) {
	ctx := context.Background()
	library, st := setupTestLibrary(t, "Minji")

	book, err := library.RegisterBook(ctx, BookInput{Title: "Brown Bear", Level: 1})
	require.NoError(t, err)
	for range 2 {
		_, err = library.RecordRead(ctx, book.ID, "Minji")
		require.NoError(t, err)
	}

	svc := NewStatsService(st, logger.Discard().Logger)
	svc.now = func() time.Time { return testDay }

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Today)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, []LevelCount{{Level: 1, Reads: 2}}, sum.ByLevel)
	assert.Equal(t, []ReaderCount{{Reader: "Minji", Reads: 2}}, sum.ByReader)
}

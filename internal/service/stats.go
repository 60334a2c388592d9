package service

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/readnest/readnest/internal/domain"
	domainerrors "github.com/readnest/readnest/internal/errors"
	"github.com/readnest/readnest/internal/store"
)

// TrendDays is how many days the daily series covers, today included.
const TrendDays = 30

// DayCount is the number of reads logged on one day.
type DayCount struct {
	Date  string `json:"date"`
	Reads int    `json:"reads"`
}

// LevelCount is the number of reads logged at one level.
type LevelCount struct {
	Level int `json:"level"`
	Reads int `json:"reads"`
}

// ReaderCount is the number of reads logged by one reader.
type ReaderCount struct {
	Reader string `json:"reader"`
	Reads  int    `json:"reads"`
}

// Summary is the dashboard.
type Summary struct {
	Today    int           `json:"today"`
	Total    int           `json:"total"`
	Daily    []DayCount    `json:"daily"`
	ByLevel  []LevelCount  `json:"by_level"`
	ByReader []ReaderCount `json:"by_reader"`
}

// StatsService aggregates the reading log.
type StatsService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(st *store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Summary computes the dashboard from the whole log.
func (s *StatsService) Summary(ctx context.Context) (*Summary, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load reading log", "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load reading log")
	}
	return Summarize(snap.Logs, snap.Readers, s.now()), nil
}

// Summarize counts logs relative to the local day of now. Every reader is
// listed, in the given order, even with zero reads; entries without a reader
// count toward today, total, daily and level only.
func Summarize(logs []domain.ReadingLog, readers []string, now time.Time) *Summary {
	today := now.Format(domain.DateLayout)

	byDate := make(map[string]int)
	byLevel := make(map[int]int)
	byReader := make(map[string]int)
	for _, e := range logs {
		byDate[e.Date]++
		byLevel[e.Level]++
		if e.Reader != "" {
			byReader[e.Reader]++
		}
	}

	sum := &Summary{
		Today:    byDate[today],
		Total:    len(logs),
		Daily:    make([]DayCount, 0, TrendDays),
		ByLevel:  make([]LevelCount, 0, len(byLevel)),
		ByReader: make([]ReaderCount, 0, len(readers)),
	}

	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(TrendDays - 1))
	for i := range TrendDays {
		date := start.AddDate(0, 0, i).Format(domain.DateLayout)
		sum.Daily = append(sum.Daily, DayCount{Date: date, Reads: byDate[date]})
	}

	for level, n := range byLevel {
		sum.ByLevel = append(sum.ByLevel, LevelCount{Level: level, Reads: n})
	}
	slices.SortFunc(sum.ByLevel, func(a, b LevelCount) int { return cmp.Compare(a.Level, b.Level) })

	for _, r := range readers {
		sum.ByReader = append(sum.ByReader, ReaderCount{Reader: r, Reads: byReader[r]})
		delete(byReader, r)
	}
	for _, r := range slices.Sorted(maps.Keys(byReader)) {
		sum.ByReader = append(sum.ByReader, ReaderCount{Reader: r, Reads: byReader[r]})
	}

	return sum
}

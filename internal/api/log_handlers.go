package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/service"
)

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReadingLog",
		Method:      http.MethodGet,
		Path:        "/api/v1/logs",
		Summary:     "Reading log",
		Description: "Returns reading log entries in the order they were recorded",
		Tags:        []string{"Reading log"},
	}, s.handleListLogs)
}

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Dashboard summary",
		Description: "Today's reads, total reads, the last 30 days and breakdowns by level and reader",
		Tags:        []string{"Reading log"},
	}, s.handleGetStats)
}

// ListLogsInput filters the log.
type ListLogsInput struct {
	Reader string `query:"reader" doc:"Only entries for this reader"`
}

// ListLogsResponse is the reading log.
type ListLogsResponse struct {
	Logs []domain.ReadingLog `json:"logs"`
}

// ListLogsOutput wraps the log for Huma.
type ListLogsOutput struct {
	Body ListLogsResponse
}

// StatsOutput wraps the dashboard for Huma.
type StatsOutput struct {
	Body *service.Summary
}

func (s *Server) handleListLogs(ctx context.Context, input *ListLogsInput) (*ListLogsOutput, error) {
	logs, err := s.services.Library.ListLogs(ctx, input.Reader)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.ReadingLog{}
	}
	return &ListLogsOutput{Body: ListLogsResponse{Logs: logs}}, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	sum, err := s.services.Stats.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: sum}, nil
}

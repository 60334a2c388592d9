package api

import (
	"github.com/readnest/readnest/internal/backup"
	"github.com/readnest/readnest/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Library *service.LibraryService
	Notes   *service.NoteService
	Intake  *service.IntakeService
	Stats   *service.StatsService
	Backup  *backup.Service
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readnest/readnest/internal/backup"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups",
		Summary:     "List backups",
		Description: "Returns the archives in the backup directory, newest first",
		Tags:        []string{"Backup"},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBackup",
		Method:        http.MethodPost,
		Path:          "/api/v1/backups",
		Summary:       "Create backup",
		Description:   "Writes a zip archive of books, reading log and notes",
		Tags:          []string{"Backup"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/backups/{name}/restore",
		Summary:     "Restore backup",
		Description: "Replaces the store contents with a stored archive",
		Tags:        []string{"Backup"},
	}, s.handleRestoreBackup)

	huma.Register(s.api, huma.Operation{
		OperationID:  "restoreUploadedBackup",
		Method:       http.MethodPost,
		Path:         "/api/v1/backups/restore",
		Summary:      "Restore uploaded backup",
		Description:  "Replaces the store contents with the archive in the request body",
		Tags:         []string{"Backup"},
		MaxBodyBytes: maxRestoreBytes,
	}, s.handleRestoreUpload)
}

// === DTOs ===

// ListBackupsResponse lists archives.
type ListBackupsResponse struct {
	Backups []backup.Info `json:"backups"`
}

// ListBackupsOutput wraps the list for Huma.
type ListBackupsOutput struct {
	Body ListBackupsResponse
}

// CreateBackupOutput wraps the new archive for Huma.
type CreateBackupOutput struct {
	Body *backup.Result
}

// RestoreBackupInput names a stored archive.
type RestoreBackupInput struct {
	Name string `path:"name" doc:"Archive file name"`
}

// RestoreUploadInput carries an archive.
type RestoreUploadInput struct {
	RawBody []byte
}

// RestoreBackupOutput wraps the restore result for Huma.
type RestoreBackupOutput struct {
	Body *backup.RestoreResult
}

// === Handlers ===

func (s *Server) handleListBackups(_ context.Context, _ *struct{}) (*ListBackupsOutput, error) {
	list, err := s.services.Backup.List()
	if err != nil {
		return nil, err
	}
	return &ListBackupsOutput{Body: ListBackupsResponse{Backups: list}}, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, _ *struct{}) (*CreateBackupOutput, error) {
	res, err := s.services.Backup.Create(ctx)
	if err != nil {
		return nil, err
	}
	return &CreateBackupOutput{Body: res}, nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*RestoreBackupOutput, error) {
	res, err := s.services.Backup.Restore(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return &RestoreBackupOutput{Body: res}, nil
}

func (s *Server) handleRestoreUpload(ctx context.Context, input *RestoreUploadInput) (*RestoreBackupOutput, error) {
	res, err := s.services.Backup.RestoreArchive(ctx, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &RestoreBackupOutput{Body: res}, nil
}

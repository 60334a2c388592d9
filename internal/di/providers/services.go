package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/backup"
	"github.com/readnest/readnest/internal/barcode"
	"github.com/readnest/readnest/internal/config"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/service"
	"github.com/readnest/readnest/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideLibraryService provides the shelf and reading log service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, v, log.Component("library")), nil
}

// ProvideNoteService provides the family board service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, v, log.Component("notes")), nil
}

// ProvideIntakeService provides barcode and ISBN intake.
func ProvideIntakeService(i do.Injector) (*service.IntakeService, error) {
	scanner := do.MustInvoke[*barcode.Scanner](i)
	chain := do.MustInvoke[*metadata.Chain](i)
	library := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIntakeService(scanner, chain, library, log.Component("intake")), nil
}

// ProvideStatsService provides the dashboard service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, log.Component("stats")), nil
}

// ProvideBackupService provides archive backups under the data directory.
func ProvideBackupService(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	dir := filepath.Join(cfg.Data.Path, "backups")
	return backup.NewService(storeHandle.Store, dir, cfg.Store.Backend, log.Component("backup")), nil
}

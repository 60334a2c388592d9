package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/config"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/store"
	csvstore "github.com/readnest/readnest/internal/store/csv"
	"github.com/readnest/readnest/internal/store/sheets"
	"github.com/readnest/readnest/internal/store/sqlite"
)

// sqliteFile is the database file name inside the data directory.
const sqliteFile = "readnest.db"

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured backend and wraps it in a store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	backend, err := openBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	st := store.New(backend, cfg.Household.Readers, log.Component("store"))

	// A first load repairs legacy ids and reports a broken backend at startup.
	if _, err := st.Load(context.Background()); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load store: %w", err)
	}

	return &StoreHandle{Store: st}, nil
}

func openBackend(cfg *config.Config, log *logger.Logger) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		path := filepath.Join(cfg.Data.Path, sqliteFile)
		b, err := sqlite.Open(path, log.Component("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info("Store initialized", "backend", cfg.Store.Backend, "path", path)
		return b, nil

	case config.BackendSheets:
		values, err := sheets.NewAPIValues(context.Background(), cfg.Store.SpreadsheetID, cfg.Store.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("open sheets store: %w", err)
		}
		log.Info("Store initialized", "backend", cfg.Store.Backend, "spreadsheet_id", cfg.Store.SpreadsheetID)
		return sheets.New(values, log.Component("sheets")), nil

	default:
		b, err := csvstore.Open(cfg.Data.Path, log.Component("csv"))
		if err != nil {
			return nil, fmt.Errorf("open csv store: %w", err)
		}
		log.Info("Store initialized", "backend", cfg.Store.Backend, "path", cfg.Data.Path)
		return b, nil
	}
}

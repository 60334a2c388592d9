// Package di provides dependency injection configuration for the readnest server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/backup"
	"github.com/readnest/readnest/internal/barcode"
	"github.com/readnest/readnest/internal/config"
	"github.com/readnest/readnest/internal/di/providers"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/service"
	"github.com/readnest/readnest/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Intake layer
	do.Provide(injector, providers.ProvideBarcodeScanner)
	do.Provide(injector, providers.ProvideGoogleBooksClient)
	do.Provide(injector, providers.ProvideOpenLibraryClient)
	do.Provide(injector, providers.ProvideMetadataChain)

	// Business services
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideNoteService)
	do.Provide(injector, providers.ProvideIntakeService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideBackupService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Invoking the HTTP server last starts it.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*barcode.Scanner](injector)
	_ = do.MustInvoke[*metadata.Chain](injector)

	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.NoteService](injector)
	_ = do.MustInvoke[*service.IntakeService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*backup.Service](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}

package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/api"
	"github.com/readnest/readnest/internal/backup"
	"github.com/readnest/readnest/internal/config"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Library: do.MustInvoke[*service.LibraryService](i),
		Notes:   do.MustInvoke[*service.NoteService](i),
		Intake:  do.MustInvoke[*service.IntakeService](i),
		Stats:   do.MustInvoke[*service.StatsService](i),
		Backup:  do.MustInvoke[*backup.Service](i),
	}

	handler := api.NewServer(storeHandle.Store, services, cfg.Server.CORSOrigins, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		srvLog := log.WithField("addr", srv.Addr)
		srvLog.Info("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvLog.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}

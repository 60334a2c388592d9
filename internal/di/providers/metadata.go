package providers

import (
	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/config"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/metadata/googlebooks"
	"github.com/readnest/readnest/internal/metadata/openlibrary"
)

// GoogleBooksClientHandle wraps the Google Books client with shutdown capability.
type GoogleBooksClientHandle struct {
	*googlebooks.Client
}

// Shutdown implements do.Shutdownable.
func (h *GoogleBooksClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideGoogleBooksClient provides the Google Books client.
func ProvideGoogleBooksClient(i do.Injector) (*GoogleBooksClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := googlebooks.New(googlebooks.Config{
		BaseURL: cfg.Providers.GoogleBooksURL,
		APIKey:  cfg.Providers.GoogleBooksAPIKey,
		Timeout: cfg.Providers.Timeout,
	}, log.Component("googlebooks"))
	log.Info("Google Books client initialized", "api_key", cfg.Providers.GoogleBooksAPIKey != "")

	return &GoogleBooksClientHandle{Client: client}, nil
}

// OpenLibraryClientHandle wraps the Open Library client with shutdown capability.
type OpenLibraryClientHandle struct {
	*openlibrary.Client
}

// Shutdown implements do.Shutdownable.
func (h *OpenLibraryClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideOpenLibraryClient provides the Open Library client.
func ProvideOpenLibraryClient(i do.Injector) (*OpenLibraryClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := openlibrary.New(openlibrary.Config{
		BaseURL: cfg.Providers.OpenLibraryURL,
		Timeout: cfg.Providers.Timeout,
	}, log.Component("openlibrary"))
	log.Info("Open Library client initialized")

	return &OpenLibraryClientHandle{Client: client}, nil
}

// ProvideMetadataChain provides the lookup chain: Google Books first, then Open Library.
func ProvideMetadataChain(i do.Injector) (*metadata.Chain, error) {
	log := do.MustInvoke[*logger.Logger](i)
	google := do.MustInvoke[*GoogleBooksClientHandle](i)
	openLibrary := do.MustInvoke[*OpenLibraryClientHandle](i)

	return metadata.NewChain(log.Component("metadata"), google.Client, openLibrary.Client), nil
}

package handler

import (
	"github.com/phygital/internal/assets"
	"github.com/phygital/internal/music"
	"github.com/phygital/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db             *gorm.DB
	pages          *service.PageService
	reconciler     *service.ReconcileService
	assets         *assets.Client
	music          *music.Client
	overrideSecret string
}

// NewAPI constructs a handler set with shared services. The asset store and
// music clients are collaborators; either may be unconfigured, in which case
// uploads are skipped and searches return empty results.
func NewAPI(gdb *gorm.DB, assetClient *assets.Client, musicClient *music.Client, overrideSecret string) *API {
	pages := service.NewPageService(gdb)

	return &API{
		db:             gdb,
		pages:          pages,
		reconciler:     service.NewReconcileService(gdb, pages, assetClient),
		assets:         assetClient,
		music:          musicClient,
		overrideSecret: overrideSecret,
	}
}

// DB exposes the underlying gorm instance for tests.
func (a *API) DB() *gorm.DB {
	return a.db
}

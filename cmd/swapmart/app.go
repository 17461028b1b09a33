package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/catalog"
	"github.com/gsarmaonline/swapmart/chat"
	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/database"
	"github.com/gsarmaonline/swapmart/items"
	"github.com/gsarmaonline/swapmart/reviews"
	"github.com/gsarmaonline/swapmart/server"
	"github.com/gsarmaonline/swapmart/storage"
)

type app struct {
	db      *gorm.DB
	store   storage.Store
	sessMgr *authentication.SessionManager
	server  *server.Server
}

// newApp wires the database, the blob store and every feature plugin.
// Plugins are listed in migration order: later tables reference earlier ones.
func newApp(ctx context.Context) (*app, error) {
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	limiter := server.NewRateLimiter(cfg.Server.AuthRateLimit, cfg.Server.AuthRateBurst, logger)
	sessMgr, err := authentication.NewSessionManager(ctx, db, authentication.SessionConfig{
		SecretKey:   []byte(cfg.Auth.SecretKey),
		TokenTTL:    cfg.Auth.TokenTTL,
		Store:       store,
		Logger:      logger,
		MaxUpload:   cfg.Storage.MaxUpload,
		RateLimiter: limiter.Handler,
	})
	if err != nil {
		return nil, err
	}

	catalogMgr := catalog.NewCatalogManager(ctx, db, sessMgr.AuthMiddleware)
	catalogMgr.SetLogger(logger)
	itemMgr := items.NewItemManager(ctx, db, items.ItemConfig{
		Store:     store,
		Auth:      sessMgr.AuthMiddleware,
		Logger:    logger,
		MaxUpload: cfg.Storage.MaxUpload,
	})
	// Item images go with their items when an account or a category is
	// deleted, so their files have to go too.
	sessMgr.AddBlobOwner(itemMgr)
	catalogMgr.AddBlobOwner(itemMgr)

	plugins := []core.Plugin{
		sessMgr,
		catalogMgr,
		itemMgr,
		reviews.NewReviewManager(ctx, db, sessMgr.AuthMiddleware),
		chat.NewChatManager(ctx, db, sessMgr.AuthMiddleware),
	}

	srv, err := server.NewServer(ctx, &cfg.Server, logger, db, plugins...)
	if err != nil {
		return nil, err
	}
	return &app{db: db, store: store, sessMgr: sessMgr, server: srv}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tweetline/internal/config"
	"tweetline/internal/database"
	"tweetline/internal/identity"
	"tweetline/internal/mailer"
	"tweetline/internal/repository"
	"tweetline/internal/repository/memory"
	"tweetline/internal/repository/mongostore"
	"tweetline/internal/service"
	"tweetline/internal/storage"
)

// Closer releases what App opened.
type Closer func()

func openStore(cfg *config.Config) (*repository.Repository, Closer, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := database.ConnectDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := db.CloseDB(); err != nil {
				log.Printf("failed to close postgres: %v", err)
			}
		}
		return repository.NewRepository(db.DB, cfg.StoreTimeout), closer, nil

	case config.StoreMongo:
		m, err := database.ConnectMongo(cfg)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
			defer cancel()
			if err := m.Close(ctx); err != nil {
				log.Printf("failed to close mongo: %v", err)
			}
		}
		return mongostore.New(m.DB, cfg.StoreTimeout).Repository(), closer, nil

	case config.StoreMemory:
		log.Println("using in-memory store, data is lost on exit")
		return memory.New().Repository(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// App opens the configured store and media bucket and builds the services on top.
func App(cfg *config.Config) (*repository.Repository, *service.Service, Closer, error) {
	if cfg.JWTSecretKey == "" {
		return nil, nil, nil, errors.New("JWT_SECRET_KEY is not set")
	}

	repo, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	minioClient, err := storage.NewMinIOClient(context.Background(), cfg)
	if err != nil {
		closeStore()
		return nil, nil, nil, fmt.Errorf("failed to initialize minio: %w", err)
	}

	issuer := identity.NewIssuer(cfg.JWTSecretKey, cfg.TokenDuration)
	services := service.NewService(repo, cfg, minioClient, mailer.New(cfg.SMTP), issuer)

	return repo, services, closeStore, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pizzeria/internal/adapters/out/memory"
	"pizzeria/internal/adapters/out/postgres"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"

	"github.com/google/uuid"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage bundles the persistence adapters selected by Config.Storage.
type Storage struct {
	UnitOfWork ports.UnitOfWorkFactory
	Directory  ports.UserDirectory

	addUser func(ctx context.Context, actor identity.Actor, points int) error
	close   func() error
}

// OpenStorage connects and migrates PostgreSQL, or builds the in-memory store.
func OpenStorage(cfg Config) (*Storage, error) {
	if cfg.Storage == StorageMemory {
		store := memory.NewStore()
		return &Storage{
			UnitOfWork: memory.NewUnitOfWorkFactory(store),
			Directory:  memory.NewUserDirectory(store),
			addUser:    store.AddUser,
			close:      func() error { return nil },
		}, nil
	}

	db, err := gorm.Open(gorm_postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err = postgres.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	directory := postgres.NewUserDirectory(db)
	return &Storage{
		UnitOfWork: postgres.NewGormUnitOfWorkFactory(db),
		Directory:  directory,
		addUser:    directory.Add,
		close:      sqlDB.Close,
	}, nil
}

// Seed creates the configured users. Users that already exist are left untouched.
func (s *Storage) Seed(ctx context.Context, seeds []SeedUser) error {
	for _, seed := range seeds {
		actor, err := identity.NewActor(SeedUserID(seed.Email), seed.Email, seed.Role)
		if err != nil {
			return err
		}
		if _, err = s.Directory.FindByEmail(ctx, seed.Email); err == nil {
			continue
		} else if !errors.Is(err, errs.ErrObjectNotFound) {
			return err
		}
		if err = s.addUser(ctx, actor, seed.Points); err != nil && !errors.Is(err, errs.ErrConflict) {
			return fmt.Errorf("seeding %s: %w", seed.Email, err)
		}
	}
	return nil
}

func (s *Storage) Close() error {
	return s.close()
}

// SeedUserID derives a stable id from the email so reseeding is idempotent.
func SeedUserID(email string) kernel.UUID {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email))))
	result, _ := kernel.UUIDFromBytes(id[:])
	return result
}

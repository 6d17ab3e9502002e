package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/travelgo/travelgo/config"
	"github.com/travelgo/travelgo/internal/domain/entity"
	"github.com/travelgo/travelgo/internal/domain/repository"
	pginfra "github.com/travelgo/travelgo/internal/infrastructure/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := pginfra.NewUserRepository(pool, cfg.BcryptCost)

	seed := []struct {
		name     string
		email    string
		password string
		role     entity.Role
	}{
		{"Admin", "admin@travelgo.io", "changeme-now", entity.RoleAdmin},
		{"Demo User", "demo@travelgo.io", "password123", entity.RoleUser},
	}

	for _, s := range seed {
		if _, err := repo.GetByEmailIncludingInactive(ctx, s.email); err == nil {
			fmt.Printf("user %s already exists, skipping\n", s.email)
			continue
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			log.Fatalf("lookup %s: %v", s.email, err)
		}

		u := entity.NewUser(s.name, s.email)
		u.Role = s.role
		u.SetPassword(s.password, s.password)
		if err := repo.Create(ctx, u); err != nil {
			log.Fatalf("failed to seed %s: %v", s.email, err)
		}
		fmt.Printf("seeded user: id=%s email=%s role=%s\n", u.ID, u.Email, u.Role)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/2beens/portfolio/internal/admin"
	"github.com/2beens/portfolio/internal/config"
	"github.com/2beens/portfolio/internal/db"
	"github.com/2beens/portfolio/pkg"

	log "github.com/sirupsen/logrus"
)

const defaultAdminPassword = "Admin@123"

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seedAdmin, err := config.LoadSeedAdmin(ctx)
	if err != nil {
		log.Fatalf("load seed admin: %s", err)
	}

	password := seedAdmin.Password
	generated := false
	if password == "" {
		if cfg.IsProduction() {
			password, err = pkg.GenerateRandomString(20)
			if err != nil {
				log.Fatalf("generate admin password: %s", err)
			}
			generated = true
		} else {
			log.Warnf("ADMIN_PASSWORD not set, using the default development password")
			password = defaultAdminPassword
		}
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBUser: cfg.PostgresUser,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("migrate: %s", err)
	}

	a, created, err := admin.Seed(ctx, admin.NewRepo(dbPool), seedAdmin.Email, password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("seed admin: %s", err)
	}

	if created {
		log.Infof("admin [%s] created: %s", a.Email, a.ID)
	} else {
		log.Infof("admin [%s] already existed, password reset: %s", a.Email, a.ID)
	}

	if generated {
		// shown once, never logged
		fmt.Printf("generated admin password: %s\n", password)
	}
}

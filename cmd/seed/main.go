package main

import (
	"context"
	"flag"

	"restoran-pos/internal/config"
	"restoran-pos/internal/database"
	"restoran-pos/internal/logger"
	"restoran-pos/internal/seed"
	"restoran-pos/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "config/seed.yaml", "YAML file with roles, menu items and tables")
	flag.Parse()

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	f, err := seed.LoadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load seed file")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	res, err := seed.Apply(context.Background(), storage.NewGormStore(db), f)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().
		Int("roles", res.Roles).
		Int("menu_items", res.MenuItems).
		Int("tables", res.Tables).
		Str("file", *file).
		Msg("seed applied")
}

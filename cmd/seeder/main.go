package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"sistema_hotel/internal/adapters/observability"
	"sistema_hotel/internal/domain"
	"sistema_hotel/internal/shared"
	mysqlrepo "sistema_hotel/internal/storage/mysql"
)

// seedHotel mirrors the catalog file layout; prices travel as decimal strings.
type seedHotel struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	Stars         int          `json:"stars"`
	PricePerNight domain.Cents `json:"price_per_night"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("file", cfg.SeedFile).
		Int("workers", cfg.SeedWorkers).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read seed file failed")
	}
	var hotels []seedHotel
	if err := json.Unmarshal(raw, &hotels); err != nil {
		log.Fatal().Err(err).Msg("parse seed file failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for _, h := range hotels {
		h := h

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(sh seedHotel) {
			defer wg.Done()
			defer sem.Release(1)

			err := repo.UpsertHotel(ctx, domain.Hotel{
				ID: sh.ID, Name: sh.Name, Description: sh.Description,
				Address: sh.Address, City: sh.City, Stars: sh.Stars,
				PricePerNight: sh.PricePerNight,
			})
			if err != nil {
				log.Warn().Int64("id", sh.ID).Err(err).Msg("seed failed")
				return
			}
			log.Info().Int64("id", sh.ID).Str("name", sh.Name).Msg("seed ok")
		}(h)
	}

	wg.Wait()
	log.Info().Int("hotels", len(hotels)).Msg("seeding completed")
}

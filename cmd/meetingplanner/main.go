package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pershin-daniil/MeetingPlanner/internal/config"
	"github.com/pershin-daniil/MeetingPlanner/internal/rest"
	"github.com/pershin-daniil/MeetingPlanner/pkg/logger"
	"github.com/pershin-daniil/MeetingPlanner/pkg/pgstore"
	"github.com/pershin-daniil/MeetingPlanner/pkg/service"
	"github.com/pershin-daniil/MeetingPlanner/pkg/worker"
	migrate "github.com/rubenv/sql-migrate"
)

const version = "0.0.1"

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.NewLogger("debug").Panic(err)
	}
	log := logger.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := pgstore.NewStore(ctx, log, cfg.PgDSN)
	if err != nil {
		log.Panic(err)
	}
	if err = store.Migrate(migrate.Up); err != nil {
		log.Panic(err)
	}
	app := service.NewMeetingService(log, store)
	server := rest.NewServer(log, app, cfg.Address, version)
	purger := worker.New(log, store, cfg.PurgeInterval, cfg.RetentionTTL)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		<-sigCh
		log.Info("Received signal, shutting down...")
		cancel()
	}()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		purger.Run(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err = server.Run(ctx); err != nil {
			log.Panic(err)
		}
	}()
	wg.Wait()
	log.Info("Server stopped")
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/rachel-multiverse/rachel-web-sub001/clock"
	"github.com/rachel-multiverse/rachel-web-sub001/engine"
	"github.com/rachel-multiverse/rachel-web-sub001/events"
	"github.com/rachel-multiverse/rachel-web-sub001/server"
	"github.com/rachel-multiverse/rachel-web-sub001/session"
	"github.com/rachel-multiverse/rachel-web-sub001/store"
)

func main() {
	fmt.Println("Starting Rachel game server...")

	var st store.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := store.OpenPostgres(dsn)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer pg.Close()
		st = pg
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	clk := clock.System()
	broker := events.NewBroker()

	sup := engine.NewSupervisor(clk, st, broker)
	if err := sup.RestoreAll(); err != nil {
		log.Fatalf("Failed to restore games: %v", err)
	}
	defer sup.Shutdown()

	cleanup := engine.NewCleanup(sup, st, clk, 0)
	cleanup.Start()
	defer cleanup.Stop()

	sessions := session.NewManager(clk)
	monitor := session.NewMonitor(clk, func(gameID string) (session.GameNotifier, bool) {
		e, ok := sup.Registry().Lookup(gameID)
		return e, ok
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "7777"
	}

	s := server.New(sup, broker, sessions, monitor)
	if err := s.Start(port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

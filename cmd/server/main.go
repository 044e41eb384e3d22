package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"zonegraph/internal/server"
)

func main() {
	port := flag.String("port", "30000", "Server port")
	dbPath := flag.String("db", "data/zonegraph.db", "Database path")
	stackLimit := flag.Int("fill-stack", 0, "Flood fill stack limit (0 = engine default)")
	flag.Parse()

	// Use PORT env var if set (required for Render.com and similar platforms)
	actualPort := *port
	if envPort := os.Getenv("PORT"); envPort != "" {
		actualPort = envPort
		log.Printf("Using PORT from environment: %s", actualPort)
	}

	// Use DB_PATH env var if set, for cloud deployments with persistent disks
	actualDBPath := *dbPath
	if envDBPath := os.Getenv("DB_PATH"); envDBPath != "" {
		actualDBPath = envDBPath
		log.Printf("Using DB_PATH from environment: %s", actualDBPath)
	}

	actualStackLimit := *stackLimit
	if envLimit := os.Getenv("FILL_STACK_LIMIT"); envLimit != "" {
		n, err := strconv.Atoi(envLimit)
		if err != nil || n < 0 {
			log.Fatalf("Invalid FILL_STACK_LIMIT %q", envLimit)
		}
		actualStackLimit = n
		log.Printf("Using FILL_STACK_LIMIT from environment: %d", n)
	}

	cfg := server.Config{
		Addr:           ":" + actualPort,
		DBPath:         actualDBPath,
		FillStackLimit: actualStackLimit,
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle shutdown gracefully
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Zonegraph Server running on %s", cfg.Addr)
	log.Printf("Database: %s", cfg.DBPath)

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

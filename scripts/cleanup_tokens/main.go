package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cashmate/pkg/auth"
	"cashmate/pkg/config"
	"cashmate/pkg/logger"
	"cashmate/pkg/store"
)

func main() {
	dry := flag.Bool("dry-run", true, "Preview actions without modifying the DB")
	yes := flag.Bool("yes", false, "Confirm destructive action when dry-run=false")
	flag.Parse()

	config.LoadDotEnv(".env")
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if cfg.DB.DSN == "" {
		log.Error("DB_DSN must be set")
		os.Exit(1)
	}
	db, err := store.Open(cfg.DB.DSN)
	if err != nil {
		log.Error("open db", "error", err)
		os.Exit(1)
	}
	tokens := auth.NewTokenManager(db, []byte(cfg.JWTSecret), cfg.TokenTTL, log)
	ctx := context.Background()

	n, err := tokens.PruneExpired(ctx, true)
	if err != nil {
		log.Error("count expired tokens", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Planned actions:\n - DELETE %d expired rows from auth_access_tokens\n", n)
	if *dry {
		fmt.Println("dry-run: no changes made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive! Pass --yes to proceed.")
		return
	}
	n, err = tokens.PruneExpired(ctx, false)
	if err != nil {
		log.Error("prune expired tokens", "error", err)
		os.Exit(1)
	}
	fmt.Printf("cleanup done: %d tokens removed\n", n)
}

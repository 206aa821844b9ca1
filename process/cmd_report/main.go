package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cashmate/pkg/config"
	"cashmate/pkg/logger"
	"cashmate/pkg/store"
	"cashmate/process/report"
)

func main() {
	email := flag.String("email", "", "email of the user to report for")
	month := flag.String("month", "", "month to report (YYYY-MM, default current month)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()
	if *email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		os.Exit(2)
	}

	config.LoadDotEnv(".env")
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.DB.DSN == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	db, err := store.Open(cfg.DB.DSN)
	if err != nil {
		log.Error("open db", "error", err)
		os.Exit(1)
	}
	if err := report.Run(context.Background(), db, log, os.Stdout, *email, *month, *list); err != nil {
		log.Error("report failed", "error", err)
		os.Exit(1)
	}
}

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
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "--email and --password are required")
		os.Exit(2)
	}

	config.LoadDotEnv(".env")
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if cfg.DB.DSN == "" {
		log.Error("DB_DSN not set in env")
		os.Exit(1)
	}
	db, err := store.Open(cfg.DB.DSN)
	if err != nil {
		log.Error("open db", "error", err)
		os.Exit(1)
	}

	svc := auth.NewService(db, auth.Options{Secret: []byte(cfg.JWTSecret), Logger: log})
	user, err := svc.ResetPassword(context.Background(), *email, *password)
	if err != nil {
		log.Error("reset password", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Password reset for %s; existing tokens revoked\n", user.Email)
}

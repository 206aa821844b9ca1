// Command create_user creates a local account without sending the welcome
// email.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cashmate/pkg/apperr"
	"cashmate/pkg/auth"
	"cashmate/pkg/config"
	"cashmate/pkg/logger"
	"cashmate/pkg/store"
)

func main() {
	email := flag.String("email", "", "email of the new account")
	password := flag.String("password", "", "plaintext password (min 6 chars)")
	fullName := flag.String("name", "", "display name")
	flag.Parse()
	if *email == "" || *password == "" || *fullName == "" {
		fmt.Fprintln(os.Stderr, "usage: create_user -email <email> -password <password> -name <full name>")
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
		log.Error("DB_DSN not set in environment")
		os.Exit(1)
	}
	db, err := store.Open(cfg.DB.DSN)
	if err != nil {
		log.Error("open db", "error", err)
		os.Exit(1)
	}

	svc := auth.NewService(db, auth.Options{Secret: []byte(cfg.JWTSecret), Logger: log})
	user, err := svc.Register(context.Background(), auth.RegisterInput{
		Email:    *email,
		Password: *password,
		FullName: *fullName,
	})
	if apperr.Is(err, apperr.KindDuplicateIdentity) {
		fmt.Printf("user %s already exists\n", *email)
		return
	}
	if err != nil {
		log.Error("create user", "error", err)
		os.Exit(1)
	}
	fmt.Printf("created user %s id=%d\n", user.Email, user.ID)
}

package main

import (
	"flag"
	"log"

	"github.com/contabilidad-io/contabilidad/internal/api"
	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/config"
	"github.com/contabilidad-io/contabilidad/internal/database"
	"github.com/contabilidad-io/contabilidad/internal/mail"
	"github.com/contabilidad-io/contabilidad/internal/storage"
)

const version = "1.0.0"

func initializeAPI(configPath string) (*api.Api, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { db.Close() }

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		log.Println("smtpHost not specified, reset links will be logged instead of mailed")
	}

	var exporter *storage.S3Client
	if cfg.StorageBucket != "" {
		exporter, err = storage.NewS3Client(
			cfg.StorageEndpoint, cfg.StorageRegion, cfg.StorageBucket,
			cfg.StorageAccessKey, cfg.StorageSecretKey)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	} else {
		log.Println("storageBucket not specified, report exports disabled")
	}

	tokenManager := auth.NewTokenManager(cfg.JWTSecret)
	resetService := auth.NewResetService(db, mailer, cfg.FrontendURL)

	a, err := api.NewApi(*cfg, db, tokenManager, resetService, exporter)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting Contabilidad API v%s with config: %s", version, *configPath)

	a, cleanup, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	a.Serve()
}

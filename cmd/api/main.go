package main

import (
	"flag"
	"log"

	"github.com/vitrine-io/vitrine/internal/api"
	"github.com/vitrine-io/vitrine/internal/auth"
	"github.com/vitrine-io/vitrine/internal/config"
	"github.com/vitrine-io/vitrine/internal/database"
	"github.com/vitrine-io/vitrine/internal/email"
	"github.com/vitrine-io/vitrine/internal/storage"
	"github.com/vitrine-io/vitrine/internal/store"
)

const version = "0.1.0"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	st := store.New(db, cfg.Database.Type)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	var mailer email.Mailer
	if cfg.Email.Enabled {
		mailer = email.NewResendMailer(cfg.Email.APIKey, cfg.Email.From, cfg.Email.VerifyBaseURL)
	} else {
		log.Println("Email dispatch disabled, verification mails will not be sent")
	}

	svc := auth.NewService(st, tokens, mailer)
	svc.SetDispatchHook(func(to string, err error) {
		if err != nil {
			log.Printf("Email dispatch to %s failed: %v", to, err)
		}
	})

	images, err := storage.NewImageStore(cfg)
	if err != nil {
		return nil, err
	}

	return api.NewApi(*cfg, st, svc, tokens, images)
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting Vitrine API v%s with config: %s", version, *configPath)

	api, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	api.Serve()
}

package main

import (
	"log"

	"github.com/aussiebroadwan/twofa/internal/twofa/app"
)

// @title           TwoFA Service API
// @version         0.1.0
// @description     Password login with optional TOTP second factor.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

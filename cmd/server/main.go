package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/cdn/internal/server"
	"github.com/dmitrijs2005/cdn/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("app init: %v", err)
	}

	// Run returns after SIGINT/SIGTERM/SIGQUIT and closes the pool.
	app.Run(context.Background())

}

package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/server"
	"github.com/dmitrijs2005/todoboard/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}

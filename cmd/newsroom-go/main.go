package main

import (
	"context"
	"log"

	"github.com/HabariMedia/newsroom-go/internal/application/startup"
	"github.com/HabariMedia/newsroom-go/internal/presentation/http/server"
)

func main() {
	deps, err := startup.Initialize(context.Background())
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	if err := server.Run(deps); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

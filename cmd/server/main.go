package main

import (
	"context"
	"log"

	"docuquery/internal/bootstrap"
	httptransport "docuquery/internal/transport/http"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	if err := httptransport.Serve(app, app.Config.HTTPAddr()); err != nil {
		log.Printf("server failed: %v", err)
	}
}

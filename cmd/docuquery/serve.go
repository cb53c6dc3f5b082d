package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"docuquery/internal/bootstrap"
	httptransport "docuquery/internal/transport/http"
)

func serveCMD() *cobra.Command {
	var addr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New(context.Background())
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Printf("close resources failed: %v", err)
				}
			}()

			if addr == "" {
				addr = app.Config.HTTPAddr()
			}
			return httptransport.Serve(app, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return serve
}

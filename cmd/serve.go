package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apiscout/apiscout/internal/chat"
	"github.com/apiscout/apiscout/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP completion server",
	Long:  `Starts the apiscout HTTP server with the completion endpoint, SSE streaming, a WebSocket chat endpoint, and the admin routes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		port := p.cfg.Port
		if servePort != 0 {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: p.cfg.AllowAllCORS,
		}, server.Deps{
			Orchestrator:  p.orchestrator,
			Descriptions:  p.descriptions,
			Settings:      p.settings,
			Conversations: p.conversations,
			DocsStore:     p.docsStore,
			DocsIndex:     p.docsIndex,
		})

		chat.NewHandler(p.orchestrator).RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "apiscout v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", p.cfg.Provider, p.cfg.Model)
		fmt.Fprintf(os.Stderr, "  Catalog: %s\n", p.cfg.CatalogURL)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zachzeid/prompteval/internal/bootstrap"
	"github.com/zachzeid/prompteval/internal/shared/config"
	"github.com/zachzeid/prompteval/internal/shared/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Start the HTTP API server",
	Long: `Run the prompteval API. An optional markdown file is parsed into the
prompt library on startup; PROMPTS_DIR can keep a whole directory synced.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	if strings.TrimSpace(servePort) != "" {
		cfg.Port = servePort
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		fail("Error: %v", err)
	}
	defer app.Close()

	if len(args) == 1 {
		seedFromFile(app, args[0])
	}

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("Starting prompteval server on http://localhost%s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// seedFromFile loads one markdown file into the library before the server
// starts accepting requests.
func seedFromFile(app *bootstrap.App, file string) {
	fmt.Printf("Loading file: %s\n", file)
	raw, err := os.ReadFile(file)
	if err != nil {
		fail("Error reading file: %v", err)
	}
	result, err := app.PromptsService.ParseAndStore(context.Background(), string(raw), filepath.Base(file), "")
	if err != nil {
		fail("Error loading file: %v", err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Message)
	}
	fmt.Printf("Loaded %d prompt(s) from %s\n", len(result.Prompts), file)
}

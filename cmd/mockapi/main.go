// Command mockapi runs an in-memory Sacco API with demo fixtures, so the
// TUI can be tried without a real backend.
//
// Demo accounts: treasurer@example.com / treasurer123 and
// member@example.com / member123.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jmwangi/saccoterm/internal/config"
	"github.com/jmwangi/saccoterm/internal/mockapi"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	server := mockapi.NewServer("saccoterm-dev-secret")

	addr := fmt.Sprintf(":%d", cfg.Mock.Port)
	slog.Info("starting mock API", "addr", addr)

	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

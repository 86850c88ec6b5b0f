package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
)

// version is set at build time.
var version = "dev"

type errorResult struct {
	Error string `json:"error"`
}

func main() {
	cmd := newCommand()

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(errorResult{Error: err.Error()})
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

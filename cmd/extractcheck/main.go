package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/FinTechTonic/creditnexus/internal/extract"
)

// Manual harness: posts a document file to a live extraction endpoint and
// prints the decoded result.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: extractcheck <document.txt>")
		os.Exit(2)
	}

	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read document", "path", os.Args[1], "error", err)
		os.Exit(2)
	}

	baseURL := os.Getenv("EXTRACTION_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := extract.NewClient(extract.Config{BaseURL: baseURL}, logger)
	res, err := client.Extract(ctx, extract.Request{Text: string(text)})
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	os.Stdout.Write(append(out, '\n'))
}

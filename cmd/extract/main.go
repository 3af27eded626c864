// Command extract runs the extraction cascade against one local file and
// prints the normalized fields as JSON. Useful for smoke-testing provider
// credentials without starting the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/hks-corretora/proposal-intake/internal/cascade"
	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/provider"
	"github.com/hks-corretora/proposal-intake/internal/provider/gemini"
	"github.com/hks-corretora/proposal-intake/internal/provider/openai"
	"github.com/hks-corretora/proposal-intake/internal/provider/relay"
)

func main() {
	_ = godotenv.Load()

	var (
		filePath = flag.String("file", "", "path of the document to extract")
		scope    = flag.String("scope", "", "upload scope (empresa, adesao, beneficiario)")
		docType  = flag.String("type", "", "declared document type")
		category = flag.String("category", "", "proposal category")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: extract -file <path> [-scope s] [-type t] [-category c]")
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read file: %v\n", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	orch := cascade.New(
		gemini.NewClient(gemini.Config{
			Endpoint:    cfg.Primary.Endpoint,
			Model:       cfg.Primary.Model,
			APIKey:      cfg.Primary.APIKey,
			Temperature: cfg.Primary.Temperature,
			Timeout:     cfg.Primary.Timeout,
		}, logger),
		relay.NewClient(relay.Config{
			Endpoints: cfg.Extractor.Endpoints,
			Timeout:   cfg.Extractor.Timeout,
		}, logger),
		openai.NewClient(openai.Config{
			APIKey:      cfg.Local.APIKey,
			BaseURL:     cfg.Local.BaseURL,
			Model:       cfg.Local.Model,
			Temperature: cfg.Local.Temperature,
			Timeout:     cfg.Local.Timeout,
		}, logger),
		logger,
		cascade.WithMaxRetries(cfg.Primary.MaxRetries),
	)

	name := filepath.Base(*filePath)
	fields := orch.Extract(context.Background(), name,
		mime.TypeByExtension(filepath.Ext(name)), data,
		provider.Context{Scope: *scope, DocType: *docType, ProposalCategory: *category})

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// Command ask answers a single query from the command line, optionally
// searching the web first, without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/koenighotze/search-assistant/config"
	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/koenighotze/search-assistant/internal/model"
	"github.com/koenighotze/search-assistant/internal/query"
	"github.com/koenighotze/search-assistant/internal/search"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML or JSON configuration file")
	withSearch := flag.Bool("search", false, "search the web for context before answering")
	flag.Parse()

	q := strings.Join(flag.Args(), " ")
	if err := run(*configPath, *withSearch, q); err != nil {
		logger.Log.Error("Cannot answer query", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, withSearch bool, q string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	req := query.GenerateRequest{Query: q}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := model.New(ctx, cfg.Model)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background()) //nolint:errcheck

	if withSearch {
		results, err := search.NewChain(cfg.Search).Search(ctx, q)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		for _, r := range results {
			logger.Log.Info("Search result", "title", r.Title, "link", r.Link, "source", r.Source)
		}
		req.SearchResults = search.FormatContext(results)
	}

	answer, err := query.NewService(backend).GenerateAnswer(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

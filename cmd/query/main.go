package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/services/index"
	"github.com/meghashyamc/pagesearch/services/search"
	"github.com/meghashyamc/pagesearch/validation"
	"github.com/urfave/cli/v3"
)

func main() {
	godotenv.Load()

	app := &cli.Command{
		Name:  "query",
		Usage: "Search and seed the pagesearch index without the HTTP server",
		Commands: []*cli.Command{
			searchCommand(),
			indexCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Print one page of search results as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "q",
				Usage: "Search query",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number, starting at 1",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Results per page, 0 for the configured default",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			request := search.ListRequest{
				Query:   cmd.String("q"),
				PerPage: int(cmd.Int("per-page")),
				Page:    strconv.Itoa(int(cmd.Int("page"))),
			}
			return runSearch(ctx, os.Stdout, request)
		},
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: `Index the documents of a JSON file shaped as {"documents": [...]}`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path of the documents file",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runIndex(ctx, os.Stdout, cmd.String("file"))
		},
	}
}

type dependencies struct {
	cfg       *config.Config
	logger    logger.Logger
	searchDB  searchdb.DB
	kvDB      kvdb.DB
	validator *validation.Validator
}

func openDependencies() (*dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	deps := &dependencies{
		cfg:    cfg,
		logger: logger.NewWithLevel(os.Stderr, logger.ParseLevel(cfg.GetLogLevel())),
	}

	deps.kvDB, err = kvdb.New(deps.logger, cfg.GetKVDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	deps.searchDB, err = searchdb.Open(deps.logger, cfg)
	if err != nil {
		deps.kvDB.Close()
		return nil, fmt.Errorf("opening search backend: %w", err)
	}

	deps.validator, err = validation.New(deps.logger)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("creating validator: %w", err)
	}

	return deps, nil
}

func (d *dependencies) close() {
	d.searchDB.Close()
	d.kvDB.Close()
}

func runSearch(ctx context.Context, out io.Writer, request search.ListRequest) error {
	deps, err := openDependencies()
	if err != nil {
		return err
	}
	defer deps.close()

	service := search.New(deps.logger, deps.searchDB, deps.kvDB, deps.validator, search.ConfigFrom(deps.cfg))
	envelope, err := service.List(ctx, request)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope)
}

func runIndex(ctx context.Context, out io.Writer, path string) error {
	documents, err := index.ReadDocumentsFile(path)
	if err != nil {
		return fmt.Errorf("reading documents: %w", err)
	}

	deps, err := openDependencies()
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.validator.Validate(index.IndexRequest{Documents: documents}); err != nil {
		return fmt.Errorf("validating documents: %w", err)
	}

	ids, err := index.New(deps.logger, deps.searchDB, deps.kvDB).Add(ctx, documents)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(out, "indexed %d documents\n", len(ids))
	return nil
}

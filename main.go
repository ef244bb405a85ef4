package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/pepu-community/pepubot/api"
	"github.com/pepu-community/pepubot/bot"
	"github.com/pepu-community/pepubot/config"
	"github.com/pepu-community/pepubot/corpus"
	"github.com/pepu-community/pepubot/database"
	"github.com/pepu-community/pepubot/ingestion"
	"github.com/pepu-community/pepubot/llm"
	"github.com/pepu-community/pepubot/price"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	switch os.Args[1] {
	case "process":
		processCmd(cfg, logger, os.Args[2:])
	case "bot":
		botCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func processCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("process", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing local documents")
	skipCrawl := flags.Bool("skip-crawl", false, "skip site crawling, ingest local documents only")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse process flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	if err := database.EnsureSchema(ctx, pgPool); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	var scraper *ingestion.Scraper
	if !*skipCrawl {
		scraper = ingestion.NewScraper(cfg.Crawl, logger)
	}

	store := corpus.NewPostgresStore(pgPool)
	svc := ingestion.NewService(store, scraper, logger, cfg.ChunkSize, cfg.ChunkOverlap)

	if err := svc.Process(ctx, *dataDir); err != nil {
		logger.Fatalf("processing failed: %v", err)
	}
}

func botCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("bot", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse bot flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	transport, err := bot.NewTelegramTransport(cfg.TelegramToken, logger)
	if err != nil {
		logger.Fatalf("telegram setup: %v", err)
	}

	svc, pool := newEngine(ctx, cfg, logger, transport, true)
	defer pool.Close()

	if err := transport.Run(ctx, svc); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("bot stopped: %v", err)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.APIAddr, "listen address for the admin API")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, pool := newEngine(ctx, cfg, logger, nil, false)
	defer pool.Close()

	server := &http.Server{Addr: *addr, Handler: api.New(svc, logger)}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Printf("admin API listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("admin API stopped: %v", err)
	}
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to answer from the corpus")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}
	if *question == "" && flags.NArg() > 0 {
		*question = flags.Arg(0)
	}
	if *question == "" {
		logger.Fatalf("provide a question via --question or as an argument")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, pool := newEngine(ctx, cfg, logger, nil, false)
	defer pool.Close()

	answer, err := svc.Ask(ctx, *question)
	if err != nil {
		logger.Fatalf("ask failed: %v", err)
	}
	fmt.Println(answer)
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete the processed corpus from Postgres. Continue? [y/N]: ")
		var answer string
		if _, err := fmt.Scanln(&answer); err != nil || (answer != "y" && answer != "yes") {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	if err := corpus.NewPostgresStore(pgPool).Clear(ctx); err != nil {
		logger.Fatalf("clear corpus: %v", err)
	}
	logger.Println("corpus cleared")
}

// newEngine wires the conversation engine against Postgres, the LLM
// provider and the price APIs. With requireCorpus the process exits when
// no corpus has been built yet; otherwise a missing corpus is tolerated
// until a reload.
func newEngine(ctx context.Context, cfg config.Config, logger *log.Logger, transport bot.Transport, requireCorpus bool) (*bot.Service, *pgxpool.Pool) {
	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	store := corpus.NewPostgresStore(pgPool)
	prices := price.NewClient(cfg.Price)
	svc := bot.NewService(transport, llmClient, prices, store, logger)

	if err := svc.LoadCorpus(ctx); err != nil {
		if requireCorpus || !errors.Is(err, corpus.ErrCorpusMissing) {
			logger.Fatalf("load corpus: %v (run `pepubot process` first)", err)
		}
		logger.Printf("corpus not built yet, run `pepubot process`")
	}

	return svc, pgPool
}

func printUsage() {
	fmt.Println("Usage: pepubot <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  process  Crawl the Pepe Unchained sites and local documents into the corpus")
	fmt.Println("  bot      Run the Telegram community bot")
	fmt.Println("  serve    Run the HTTP admin API (status, ask, reset, reload)")
	fmt.Println("  ask      Answer a one-shot question from the corpus")
	fmt.Println("  clear    Remove the processed corpus from Postgres")
}

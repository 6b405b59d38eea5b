package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrevrochaz/agent-swarm-rag/internal/config"
	"github.com/andrevrochaz/agent-swarm-rag/internal/db"
	"github.com/andrevrochaz/agent-swarm-rag/internal/llm"
	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
	"github.com/andrevrochaz/agent-swarm-rag/internal/scrape"
)

func main() {
	root := &cobra.Command{
		Use:   "indexer",
		Short: "Build and refresh the InfinitePay knowledge index",
	}

	root.AddCommand(newReindexCmd())
	root.AddCommand(newImportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup owns the shared resources of both commands: pool, repository,
// Gemini client and the write-path indexer.
func setup(ctx context.Context) (*rag.Indexer, func(), error) {
	cfg := config.Load()
	pool := db.NewPool(cfg.DatabaseURL)

	repo := rag.NewPgRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	geminiClient, err := llm.NewGeminiClient(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	cols := rag.NewCollectionSet(cfg.CollectionPrefix)
	indexer := rag.NewIndexer(repo, geminiClient, cols)

	return indexer, pool.Close, nil
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Fetch the configured pages and rebuild the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			indexer, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := config.Load()
			scraper := scrape.NewScraper()

			docs := scraper.ScrapeAll(ctx, cfg.ScrapeURLs)
			if len(docs) == 0 {
				log.Println("no documents were scraped")
				return nil
			}

			if err := indexer.IndexDocuments(ctx, docs); err != nil {
				return err
			}

			log.Printf("reindex complete: %d documents", len(docs))
			return nil
		},
	}
}

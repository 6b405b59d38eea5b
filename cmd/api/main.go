package main

import (
	"context"
	"log"
	"net/http"

	"github.com/andrevrochaz/agent-swarm-rag/internal/agent"
	"github.com/andrevrochaz/agent-swarm-rag/internal/config"
	"github.com/andrevrochaz/agent-swarm-rag/internal/db"
	apphttp "github.com/andrevrochaz/agent-swarm-rag/internal/http"
	"github.com/andrevrochaz/agent-swarm-rag/internal/llm"
	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
	"github.com/andrevrochaz/agent-swarm-rag/internal/scrape"
	"github.com/andrevrochaz/agent-swarm-rag/internal/tools"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	pool := db.NewPool(cfg.DatabaseURL)
	defer pool.Close()

	repo := rag.NewPgRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to prepare index schema: %v", err)
	}

	geminiClient, err := llm.NewGeminiClient(ctx)
	if err != nil {
		log.Fatalf("failed to init Gemini client: %v", err)
	}

	customerStore, err := tools.OpenCustomerStore(cfg.CustomerDBPath)
	if err != nil {
		log.Fatalf("failed to open customer store: %v", err)
	}
	defer customerStore.Close()

	cols := rag.NewCollectionSet(cfg.CollectionPrefix)
	retriever := rag.NewService(repo, geminiClient, cols)
	indexer := rag.NewIndexer(repo, geminiClient, cols)
	scraper := scrape.NewScraper()

	orchestrator := agent.NewOrchestrator(agent.OrchestratorDeps{
		Router:      agent.NewRouter(geminiClient),
		Knowledge:   agent.NewKnowledge(geminiClient, retriever),
		Support:     agent.NewSupport(geminiClient, customerStore),
		Personality: agent.NewPersonality(geminiClient),
		Scraper:     scraper,
		Indexer:     indexer,
		Repo:        repo,
		Collections: cols,
		ScrapeURLs:  cfg.ScrapeURLs,
	})

	if err := orchestrator.EnsureIndex(ctx); err != nil {
		log.Printf("initial indexing failed: %v", err)
	}

	h := apphttp.NewHandler(orchestrator)
	router := apphttp.NewRouter(h)

	handler := corsMiddleware(router)

	addr := ":" + cfg.Port
	log.Printf("API listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "http://localhost:3000" || origin == "http://127.0.0.1:3000" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

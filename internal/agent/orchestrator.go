package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
	"github.com/andrevrochaz/agent-swarm-rag/internal/scrape"
)

const apologyAnswer = "I apologize, but I encountered an error while processing your request. Please try again later."

// Orchestrator wires the agent pipeline: router picks the domain agent,
// the personality agent rewrites its answer, and every hop lands in the
// workflow trace.
type Orchestrator struct {
	router      *Router
	knowledge   *Knowledge
	support     *Support
	personality *Personality

	scraper *scrape.Scraper
	indexer *rag.Indexer
	repo    rag.Repository
	cols    rag.CollectionSet
	urls    []string
}

type OrchestratorDeps struct {
	Router      *Router
	Knowledge   *Knowledge
	Support     *Support
	Personality *Personality
	Scraper     *scrape.Scraper
	Indexer     *rag.Indexer
	Repo        rag.Repository
	Collections rag.CollectionSet
	ScrapeURLs  []string
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		router:      deps.Router,
		knowledge:   deps.Knowledge,
		support:     deps.Support,
		personality: deps.Personality,
		scraper:     deps.Scraper,
		indexer:     deps.Indexer,
		repo:        deps.Repo,
		cols:        deps.Collections,
		urls:        deps.ScrapeURLs,
	}
}

// ProcessMessage runs router → domain agent → personality. Agents degrade
// internally, so the trace always reflects what actually ran; anything that
// still panics collapses to the canned error response.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message, userID string) (resp ChatResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("message processing panicked: %v", r)
			resp = ErrorResponse(fmt.Errorf("panic: %v", r))
		}
	}()

	log.Printf("processing message for user %s: %.50s", userID, message)

	routing := o.router.Process(ctx, message)
	workflow := []WorkflowStep{workflowStep(routing)}

	target, _ := routing.Metadata["agent"].(string)

	var domainResponse Response
	if strings.EqualFold(target, "SUPPORT") {
		domainResponse = o.support.Process(ctx, message, userID)
	} else {
		domainResponse = o.knowledge.Process(ctx, message)
	}
	workflow = append(workflow, workflowStep(domainResponse))

	enhanced := o.personality.Process(ctx, message, domainResponse.AgentName, domainResponse.Response)
	workflow = append(workflow, workflowStep(enhanced))

	return ChatResponse{
		Response:            enhanced.Response,
		SourceAgentResponse: domainResponse.Response,
		AgentWorkflow:       workflow,
	}
}

// ErrorResponse is the canned reply for failures outside the agents.
func ErrorResponse(err error) ChatResponse {
	return ChatResponse{
		Response:            apologyAnswer,
		SourceAgentResponse: "Error occurred during processing",
		AgentWorkflow: []WorkflowStep{{
			AgentName: "error_handler",
			ToolCalls: map[string]any{"error": err.Error()},
		}},
	}
}

// RebuildIndex re-runs fetch → extract → index for the configured URLs.
// Index write failures propagate; fetch failures were already dropped
// per URL by the scraper.
func (o *Orchestrator) RebuildIndex(ctx context.Context) error {
	docs := o.scraper.ScrapeAll(ctx, o.urls)
	if len(docs) == 0 {
		log.Printf("no documents were scraped")
		return nil
	}

	if err := o.indexer.IndexDocuments(ctx, docs); err != nil {
		return fmt.Errorf("index scraped documents: %w", err)
	}

	log.Printf("indexed %d documents", len(docs))
	return nil
}

// EnsureIndex populates the index on first boot and leaves an already
// populated one alone.
func (o *Orchestrator) EnsureIndex(ctx context.Context) error {
	count, err := o.IndexedCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("index already contains %d entries", count)
		return nil
	}

	log.Printf("index is empty, scraping InfinitePay website")
	return o.RebuildIndex(ctx)
}

// CollectionCounts reports the entry count of each collection.
func (o *Orchestrator) CollectionCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 3)
	for _, collection := range o.cols.All() {
		n, err := o.repo.Count(ctx, collection)
		if err != nil {
			return nil, err
		}
		counts[collection] = n
	}
	return counts, nil
}

// IndexedCount sums the entry counts of the three collections.
func (o *Orchestrator) IndexedCount(ctx context.Context) (int64, error) {
	counts, err := o.CollectionCounts(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

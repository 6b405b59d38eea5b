package rag

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
)

// Terms that flag a query as pricing-flavored.
var pricingQueryTerms = []string{
	"fee", "rate", "cost", "price", "charge", "%", "percent", "how much",
}

// Service is the retrieval coordinator: it classifies the query, fans out
// to the relevant collections, and merges, deduplicates and ranks the hits.
type Service struct {
	repo       Repository
	embeddings EmbeddingsClient
	cols       CollectionSet
}

func NewService(repo Repository, embeddings EmbeddingsClient, cols CollectionSet) *Service {
	return &Service{
		repo:       repo,
		embeddings: embeddings,
		cols:       cols,
	}
}

func (s *Service) Collections() CollectionSet {
	return s.cols
}

// IsPricingQuery reports whether the query mentions any pricing term.
func IsPricingQuery(query string) bool {
	q := strings.ToLower(query)
	for _, term := range pricingQueryTerms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// Search returns up to k deduplicated results ranked by similarity.
// Retrieval must never abort the caller's flow, so every failure is logged
// and collapses to an empty list.
func (s *Service) Search(ctx context.Context, query string, k int, scope Scope) []RetrievalResult {
	results, err := s.search(ctx, query, k, scope)
	if err != nil {
		log.Printf("retrieval failed for %q: %v", query, err)
		return nil
	}
	return results
}

func (s *Service) search(ctx context.Context, query string, k int, scope Scope) ([]RetrievalResult, error) {
	if k <= 0 {
		k = 5
	}
	if scope == "" {
		scope = ScopeAll
	}

	// One embedding per query, reused across every collection below.
	queryVec, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	pricingQuery := IsPricingQuery(query)

	// Scan order matters: it decides which duplicate survives and how
	// similarity ties are broken.
	var results []RetrievalResult

	if pricingQuery || scope == ScopeAll || scope == ScopePricing {
		hits, err := s.queryCollection(ctx, s.cols.Pricing, queryVec, min(k, 3))
		if err != nil {
			return nil, err
		}
		results = append(results, hits...)
	}

	if scope == ScopeAll || scope == ScopeStructured {
		hits, err := s.queryCollection(ctx, s.cols.Structured, queryVec, min(k, 2))
		if err != nil {
			return nil, err
		}
		results = append(results, hits...)
	}

	if scope == ScopeAll || scope == ScopeText {
		hits, err := s.queryCollection(ctx, s.cols.Text, queryVec, k)
		if err != nil {
			return nil, err
		}
		results = append(results, hits...)
	}

	results = dedupeResults(results)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Service) queryCollection(ctx context.Context, collection string, queryVec []float32, limit int) ([]RetrievalResult, error) {
	neighbors, err := s.repo.Search(ctx, collection, queryVec, limit)
	if err != nil {
		return nil, err
	}

	results := make([]RetrievalResult, 0, len(neighbors))
	for _, n := range neighbors {
		results = append(results, toResult(collection, n))
	}
	return results, nil
}

func toResult(collection string, n Neighbor) RetrievalResult {
	kind := KindUnknown
	if t, ok := n.Metadata[metaKeyChunkType]; ok && t != "" {
		kind = ChunkKind(t)
	}

	result := RetrievalResult{
		Content:    n.Content,
		Metadata:   n.Metadata,
		Similarity: 1 - n.Distance,
		Collection: collection,
		Kind:       kind,
	}

	// A corrupt pricing payload costs the result its facts, not its place
	// in the ranking.
	if n.Metadata[metaKeyHasPricing] == "true" {
		var facts []PricingFact
		if err := json.Unmarshal([]byte(n.Metadata[metaKeyPricingData]), &facts); err == nil {
			result.Pricing = facts
		}
	}

	return result
}

// dedupeResults keeps the first occurrence of each (url, content-prefix)
// identity, regardless of which collection it came from.
func dedupeResults(results []RetrievalResult) []RetrievalResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		key := ContentPrefixKey(r.Metadata[metaKeyURL], r.Content)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

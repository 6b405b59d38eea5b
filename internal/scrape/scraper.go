package scrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

const requestTimeout = 30 * time.Second

// Scraper fetches pages over a shared client and extracts typed chunks.
// Construct one per orchestrator; it owns its connection pool.
type Scraper struct {
	client *http.Client
}

func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: requestTimeout},
	}
}

// ScrapeURL fetches one page and produces its Document. A page with none
// of the recognized structures falls back to a single full_document chunk.
func (s *Scraper) ScrapeURL(ctx context.Context, pageURL string) (*rag.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", pageURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return documentFromTree(root, pageURL), nil
}

// ScrapeAll fetches every URL concurrently. Per-URL failures are logged and
// excluded; the survivors come back in input order for reproducibility.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) []rag.Document {
	fetched := make([]*rag.Document, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			doc, err := s.ScrapeURL(ctx, u)
			if err != nil {
				log.Printf("skipping %s: %v", u, err)
				return
			}
			fetched[i] = doc
		}(i, u)
	}
	wg.Wait()

	docs := make([]rag.Document, 0, len(urls))
	for _, doc := range fetched {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs
}

func documentFromTree(root *html.Node, pageURL string) *rag.Document {
	doc := &rag.Document{
		URL:  pageURL,
		Text: ExtractText(root),
	}

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "title":
			if doc.Title == "" {
				doc.Title = strings.TrimSpace(nodeText(n))
			}
			return false
		case "h1", "h2", "h3":
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				doc.Headings = append(doc.Headings, text)
			}
			return false
		case "meta":
			if attrValue(n, "name") == "description" {
				doc.MetaDescription = attrValue(n, "content")
			}
		}
		return true
	})

	doc.Chunks = ExtractChunks(root, pageURL, doc.Title)
	if len(doc.Chunks) == 0 {
		doc.Chunks = []rag.Chunk{FullDocumentChunk(doc.Title, doc.Text)}
	}

	return doc
}

// DocumentFromText builds a Document from plain text with no markup, used
// by the local-file importer. The text lines still go through the pricing
// scan so rate mentions in imported docs stay queryable.
func DocumentFromText(sourceURL, title, text string) rag.Document {
	doc := rag.Document{
		URL:   sourceURL,
		Title: title,
		Text:  text,
	}

	if facts := extractTextLineFacts(text); len(facts) > 0 {
		doc.Chunks = append(doc.Chunks, rag.Chunk{
			Kind:    rag.KindPricingTable,
			Content: renderFacts(facts),
			Metadata: map[string]string{
				"fact_count": fmt.Sprintf("%d", len(facts)),
			},
			Pricing: facts,
		})
	}

	doc.Chunks = append(doc.Chunks, FullDocumentChunk(title, text))
	return doc
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

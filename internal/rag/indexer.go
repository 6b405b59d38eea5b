package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"log"
	"strconv"
)

// Metadata keys shared between the write and read paths.
const (
	metaKeyURL         = "url"
	metaKeyTitle       = "title"
	metaKeyChunkType   = "chunk_type"
	metaKeyHasPricing  = "has_pricing"
	metaKeyPricingData = "pricing_data"
)

// Indexer is the write path: it routes chunks to collections, assigns
// stable ids, embeds changed content and batches upserts.
type Indexer struct {
	repo       Repository
	embeddings EmbeddingsClient
	cols       CollectionSet
}

func NewIndexer(repo Repository, embeddings EmbeddingsClient, cols CollectionSet) *Indexer {
	return &Indexer{
		repo:       repo,
		embeddings: embeddings,
		cols:       cols,
	}
}

// EntryID derives the persisted identifier for a chunk. crc32 is a fixed
// checksum, so the same document position always yields the same id and
// re-indexing overwrites instead of duplicating.
func EntryID(docIndex, chunkIndex int, url string) string {
	return fmt.Sprintf("doc_%d_%d_%08x", docIndex, chunkIndex, crc32.ChecksumIEEE([]byte(url)))
}

// IndexDocuments persists every chunk of every document. Embedding and
// storage failures propagate: callers need to know indexing did not finish.
func (ix *Indexer) IndexDocuments(ctx context.Context, docs []Document) error {
	batches := make(map[string][]IndexEntry)

	for di, doc := range docs {
		for ci, chunk := range doc.Chunks {
			entry, err := ix.buildEntry(di, ci, doc, chunk)
			if err != nil {
				return err
			}
			collection := ix.cols.CollectionFor(chunk.Kind)
			batches[collection] = append(batches[collection], entry)
		}
	}

	for _, collection := range ix.cols.All() {
		entries := batches[collection]
		if len(entries) == 0 {
			continue
		}

		changed, err := ix.filterChanged(ctx, collection, entries)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			log.Printf("collection %s: %d chunks unchanged, nothing to write", collection, len(entries))
			continue
		}

		for i := range changed {
			vec, err := ix.embeddings.Embed(ctx, changed[i].Content)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", changed[i].ID, err)
			}
			changed[i].Embedding = vec
		}

		if err := ix.repo.UpsertEntries(ctx, collection, changed); err != nil {
			return err
		}
		log.Printf("collection %s: upserted %d of %d chunks", collection, len(changed), len(entries))
	}

	return nil
}

func (ix *Indexer) buildEntry(docIndex, chunkIndex int, doc Document, chunk Chunk) (IndexEntry, error) {
	metadata := make(map[string]string, len(chunk.Metadata)+5)
	for k, v := range chunk.Metadata {
		metadata[k] = v
	}
	metadata[metaKeyURL] = doc.URL
	metadata[metaKeyTitle] = doc.Title
	metadata[metaKeyChunkType] = string(chunk.Kind)

	if len(chunk.Pricing) > 0 {
		payload, err := json.Marshal(chunk.Pricing)
		if err != nil {
			return IndexEntry{}, fmt.Errorf("serialize pricing facts for %s: %w", doc.URL, err)
		}
		metadata[metaKeyHasPricing] = "true"
		metadata[metaKeyPricingData] = string(payload)
	}

	return IndexEntry{
		ID:          EntryID(docIndex, chunkIndex, doc.URL),
		Content:     chunk.Content,
		Metadata:    metadata,
		ContentHash: contentHash(chunk.Content),
	}, nil
}

// filterChanged drops entries whose stored content hash already matches, so
// their embeddings are never recomputed.
func (ix *Indexer) filterChanged(ctx context.Context, collection string, entries []IndexEntry) ([]IndexEntry, error) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	existing, err := ix.repo.ContentHashes(ctx, collection, ids)
	if err != nil {
		return nil, err
	}

	var changed []IndexEntry
	for _, e := range entries {
		if existing[e.ID] == e.ContentHash {
			continue
		}
		changed = append(changed, e)
	}
	return changed, nil
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ContentPrefixKey builds the dedup identity used on the read path: source
// URL plus a checksum of the first 100 characters of content. The prefix is
// counted in runes so multibyte content never splits mid-character.
func ContentPrefixKey(url, content string) string {
	prefix := content
	if runes := []rune(content); len(runes) > 100 {
		prefix = string(runes[:100])
	}
	return url + "|" + strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(prefix))), 16)
}

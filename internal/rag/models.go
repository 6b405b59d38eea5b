package rag

// ChunkKind classifies an extracted unit of page content. Typed to keep
// collection routing a pure function instead of string matching all over.
type ChunkKind string

const (
	KindPricingTable ChunkKind = "pricing_table"
	KindHeader       ChunkKind = "header"
	KindFeatureList  ChunkKind = "feature_list"
	KindText         ChunkKind = "text"
	KindFullDocument ChunkKind = "full_document"
	KindUnknown      ChunkKind = "unknown"
)

// PaymentMethod is the closed vocabulary pricing facts are keyed on.
type PaymentMethod string

const (
	MethodPix     PaymentMethod = "pix"
	MethodDebit   PaymentMethod = "debit"
	MethodCredit  PaymentMethod = "credit"
	MethodBoleto  PaymentMethod = "boleto"
	MethodUnknown PaymentMethod = "unknown"
)

// PricingFact is a structured (method, rate) claim extracted from tabular
// markup or free text. RateNumeric is nil when no numeric pattern matched.
type PricingFact struct {
	Product     string        `json:"product"`
	Method      PaymentMethod `json:"paymentMethod"`
	Rate        string        `json:"rate"`
	RateNumeric *float64      `json:"rateNumeric,omitempty"`
	Conditions  string        `json:"conditions"`
	VolumeTier  string        `json:"volumeTier,omitempty"`
}

// Chunk is a typed unit of extracted page content. Pricing is populated
// only for KindPricingTable chunks.
type Chunk struct {
	Kind     ChunkKind         `json:"kind"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Pricing  []PricingFact     `json:"pricing,omitempty"`
}

// Document is one fetched page. Discarded after indexing.
type Document struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Text            string   `json:"text"`
	Headings        []string `json:"headings"`
	MetaDescription string   `json:"metaDescription"`
	Chunks          []Chunk  `json:"chunks"`
}

// Scope selects which collections a retrieval fans out to.
type Scope string

const (
	ScopeAll        Scope = "all"
	ScopePricing    Scope = "pricing"
	ScopeStructured Scope = "structured"
	ScopeText       Scope = "text"
)

// RetrievalResult is the read-path unit: one neighbor converted to a
// similarity-scored result with its pricing facts rehydrated.
type RetrievalResult struct {
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float64           `json:"similarity"`
	Collection string            `json:"collection"`
	Kind       ChunkKind         `json:"kind"`
	Pricing    []PricingFact     `json:"pricing,omitempty"`
}

// RateRange is the observed min/max numeric rate for one payment method.
type RateRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RateObservation is one specific rate seen in the retrieved results.
type RateObservation struct {
	Method      PaymentMethod `json:"paymentMethod"`
	Rate        string        `json:"rate"`
	RateNumeric float64       `json:"rateNumeric"`
	Conditions  string        `json:"conditions"`
	VolumeTier  string        `json:"volumeTier,omitempty"`
}

// PricingInsights aggregates the pricing facts of a retrieval result set.
// Method and tier sets are sorted alphabetically for deterministic output.
type PricingInsights struct {
	HasPricingData bool                        `json:"hasPricingData"`
	PaymentMethods []PaymentMethod             `json:"paymentMethods"`
	RateRanges     map[PaymentMethod]RateRange `json:"rateRanges"`
	VolumeTiers    []string                    `json:"volumeTiers"`
	SpecificRates  []RateObservation           `json:"specificRates"`
}

// CollectionSet names the three durable collections. The names are identity
// keys on disk and must stay stable across versions.
type CollectionSet struct {
	Text       string
	Pricing    string
	Structured string
}

func NewCollectionSet(prefix string) CollectionSet {
	return CollectionSet{
		Text:       prefix + "_text",
		Pricing:    prefix + "_pricing",
		Structured: prefix + "_structured",
	}
}

// CollectionFor routes a chunk kind to its collection.
func (cs CollectionSet) CollectionFor(kind ChunkKind) string {
	switch kind {
	case KindPricingTable:
		return cs.Pricing
	case KindHeader, KindFeatureList:
		return cs.Structured
	default:
		return cs.Text
	}
}

func (cs CollectionSet) All() []string {
	return []string{cs.Text, cs.Pricing, cs.Structured}
}

package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

func parsePage(t *testing.T, body string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return root
}

func chunksOfKind(chunks []rag.Chunk, kind rag.ChunkKind) []rag.Chunk {
	var out []rag.Chunk
	for _, c := range chunks {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestExtractChunksPriceTable(t *testing.T) {
	page := `<html><body>
		<table>
			<tr><th>Method</th><th>Rate</th></tr>
			<tr><td>Credit</td><td>2.5%</td></tr>
			<tr><td>Pix</td><td>free</td></tr>
		</table>
	</body></html>`

	chunks := ExtractChunks(parsePage(t, page), "https://example.com/pricing", "Pricing")

	pricing := chunksOfKind(chunks, rag.KindPricingTable)
	require.Len(t, pricing, 1)
	require.Len(t, pricing[0].Pricing, 2)

	credit := pricing[0].Pricing[0]
	assert.Equal(t, rag.MethodCredit, credit.Method)
	assert.Equal(t, "2.5%", credit.Rate)
	require.NotNil(t, credit.RateNumeric)
	assert.Equal(t, 2.5, *credit.RateNumeric)

	pix := pricing[0].Pricing[1]
	assert.Equal(t, rag.MethodPix, pix.Method)
	assert.Equal(t, "0%", pix.Rate)
	require.NotNil(t, pix.RateNumeric)
	assert.Equal(t, 0.0, *pix.RateNumeric)

	assert.Contains(t, pricing[0].Content, "Payment: credit | Rate: 2.5%")
	assert.Contains(t, pricing[0].Content, "Payment: pix | Rate: 0%")
	assert.Equal(t, "2", pricing[0].Metadata["fact_count"])
}

func TestExtractChunksTableDropsUselessRows(t *testing.T) {
	page := `<html><body>
		<table>
			<tr><th>Method</th><th>Rate</th></tr>
			<tr><td>Debit</td><td></td></tr>
			<tr><td></td><td>1.5%</td></tr>
			<tr><td>just words</td><td>no numbers here</td></tr>
			<tr><td>lonely cell</td></tr>
		</table>
	</body></html>`

	chunks := ExtractChunks(parsePage(t, page), "https://example.com", "")
	assert.Empty(t, chunksOfKind(chunks, rag.KindPricingTable))
}

func TestFactFromLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *rag.PricingFact
		numeric float64
	}{
		{
			name:    "explicit percentage",
			line:    "Credit card rate of 3.19% per sale",
			want:    &rag.PricingFact{Method: rag.MethodCredit, Rate: "3.19%"},
			numeric: 3.19,
		},
		{
			name:    "free pix",
			line:    "Pix transfers are free for everyone",
			want:    &rag.PricingFact{Method: rag.MethodPix, Rate: "0%"},
			numeric: 0.0,
		},
		{
			name:    "zero boleto",
			line:    "boleto emission costs zero",
			want:    &rag.PricingFact{Method: rag.MethodBoleto, Rate: "0%"},
			numeric: 0.0,
		},
		{
			name: "numeric rate without payment keyword",
			line: "Our service rate is 1.99% on everything",
			want: nil,
		},
		{
			name: "payment keyword without any rate",
			line: "Pay with credit wherever you like",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fact, ok := factFromLine(tt.line, "general")
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want.Method, fact.Method)
			assert.Equal(t, tt.want.Rate, fact.Rate)
			require.NotNil(t, fact.RateNumeric)
			assert.Equal(t, tt.numeric, *fact.RateNumeric)
			assert.Equal(t, strings.TrimSpace(tt.line), fact.Conditions)
		})
	}
}

func TestFactFromLinePixBeatsCredit(t *testing.T) {
	// Method keywords are checked pix → debit → credit → boleto.
	fact, ok := factFromLine("pix via credit machine: 0.99% fee", "general")
	require.True(t, ok)
	assert.Equal(t, rag.MethodPix, fact.Method)
}

func TestFactFromLineVolumeTier(t *testing.T) {
	fact, ok := factFromLine("credit at 2.5% for sales above 40 mil monthly", "general")
	require.True(t, ok)
	assert.Equal(t, "40 mil", fact.VolumeTier)

	fact, ok = factFromLine("credit at 2.5% above 20 thousand", "general")
	require.True(t, ok)
	assert.Equal(t, "20 thousand", fact.VolumeTier)

	// Tier pattern is only consulted when a trigger word is present.
	fact, ok = factFromLine("credit at 2.5% for 20 thousand sellers", "general")
	require.True(t, ok)
	assert.Empty(t, fact.VolumeTier)
}

func TestExtractSectionFactsTracksProduct(t *testing.T) {
	page := `<html><body>
		<div class="price-card">
			<p>Maquininha Smart</p>
			<p>credit: 2.99% fee</p>
			<p>Tap to pay on your phone</p>
			<p>debit: 1.99% fee</p>
		</div>
	</body></html>`

	facts := extractSectionFacts(parsePage(t, page))
	require.Len(t, facts, 2)
	assert.Equal(t, "smart", facts[0].Product)
	assert.Equal(t, rag.MethodCredit, facts[0].Method)
	assert.Equal(t, "tap", facts[1].Product)
	assert.Equal(t, rag.MethodDebit, facts[1].Method)
}

func TestExtractSectionFactsIgnoresUnmarkedSections(t *testing.T) {
	page := `<html><body>
		<div class="hero-banner">
			<p>credit: 2.99% fee</p>
		</div>
	</body></html>`

	// No rate/price/fee/cost class token, so the section scan skips it.
	// The plain-text scan still picks the line up independently.
	assert.Empty(t, extractSectionFacts(parsePage(t, page)))

	facts := extractTextLineFacts(ExtractText(parsePage(t, page)))
	require.Len(t, facts, 1)
	assert.Equal(t, "general", facts[0].Product)
}

func TestExtractChunksStructure(t *testing.T) {
	page := `<html><head><title>InfinitePay</title></head><body>
		<h1>Maquininha Smart</h1>
		<h2>Why choose us</h2>
		<h4>Too deep to index</h4>
		<ul>
			<li>No rental fee</li>
			<li>Receive instantly</li>
		</ul>
		<p>short one</p>
		<p>This paragraph is comfortably longer than fifty characters and should become a text chunk.</p>
	</body></html>`

	chunks := ExtractChunks(parsePage(t, page), "https://example.com", "InfinitePay")

	headers := chunksOfKind(chunks, rag.KindHeader)
	require.Len(t, headers, 2)
	assert.Equal(t, "Maquininha Smart", headers[0].Content)
	assert.Equal(t, "1", headers[0].Metadata["heading_level"])
	assert.Equal(t, "2", headers[1].Metadata["heading_level"])

	lists := chunksOfKind(chunks, rag.KindFeatureList)
	require.Len(t, lists, 1)
	assert.Equal(t, "• No rental fee\n• Receive instantly", lists[0].Content)
	assert.Equal(t, "2", lists[0].Metadata["item_count"])

	texts := chunksOfKind(chunks, rag.KindText)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0].Content, "comfortably longer")
	assert.Equal(t, "1", texts[0].Metadata["position"])
}

func TestExtractChunksEmptyPage(t *testing.T) {
	chunks := ExtractChunks(parsePage(t, "<html><body><p>tiny</p></body></html>"), "https://example.com", "")
	assert.Empty(t, chunks)
}

func TestFullDocumentChunk(t *testing.T) {
	chunk := FullDocumentChunk("Title", "body text")
	assert.Equal(t, rag.KindFullDocument, chunk.Kind)
	assert.Equal(t, "Title body text", chunk.Content)
}

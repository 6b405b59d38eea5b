package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/andrevrochaz/agent-swarm-rag/internal/rag"
)

var (
	// First decimal-looking token, optionally suffixed with %.
	rateTokenRe = regexp.MustCompile(`(\d+\.?\d*)%?`)
	// Explicit percentage in free text, e.g. "2.5%".
	lineRateRe = regexp.MustCompile(`(\d+\.?\d*)%`)
	// Volume bracket, e.g. "20 thousand" / "40 mil".
	volumeTierRe = regexp.MustCompile(`(\d+[,.]?\d*)\s*(thousand|mil)`)
)

// Checked in order; first match wins.
var methodKeywords = []struct {
	keyword string
	method  rag.PaymentMethod
}{
	{"pix", rag.MethodPix},
	{"debit", rag.MethodDebit},
	{"credit", rag.MethodCredit},
	{"boleto", rag.MethodBoleto},
}

var (
	productKeywords     = []string{"machine", "tap", "link", "pix", "smart"}
	rateClassTokens     = []string{"rate", "price", "fee", "cost"}
	pricingLineTriggers = []string{"rate", "fee", "%", "r$"}
	tierTriggers        = []string{"above", "up to", "from"}
)

// ExtractChunks parses a page tree into typed chunks: at most one
// pricing_table chunk holding every pricing fact found, plus one chunk per
// heading, list and long paragraph. A page yielding nothing here gets a
// full_document fallback from the caller.
func ExtractChunks(root *html.Node, pageURL, title string) []rag.Chunk {
	var chunks []rag.Chunk

	var facts []rag.PricingFact
	facts = append(facts, extractTableFacts(root)...)
	facts = append(facts, extractSectionFacts(root)...)
	facts = append(facts, extractTextLineFacts(ExtractText(root))...)

	if len(facts) > 0 {
		chunks = append(chunks, rag.Chunk{
			Kind:    rag.KindPricingTable,
			Content: renderFacts(facts),
			Metadata: map[string]string{
				"fact_count": strconv.Itoa(len(facts)),
			},
			Pricing: facts,
		})
	}

	level := 0
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "h1":
			level = 1
		case "h2":
			level = 2
		case "h3":
			level = 3
		default:
			return true
		}
		text := strings.TrimSpace(nodeText(n))
		if text != "" {
			chunks = append(chunks, rag.Chunk{
				Kind:    rag.KindHeader,
				Content: text,
				Metadata: map[string]string{
					"heading_level": strconv.Itoa(level),
				},
			})
		}
		return false
	})

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || (n.Data != "ul" && n.Data != "ol") {
			return true
		}
		var items []string
		walk(n, func(li *html.Node) bool {
			if li.Type == html.ElementNode && li.Data == "li" {
				if text := strings.TrimSpace(nodeText(li)); text != "" {
					items = append(items, "• "+text)
				}
				return false
			}
			return true
		})
		if len(items) > 0 {
			chunks = append(chunks, rag.Chunk{
				Kind:    rag.KindFeatureList,
				Content: strings.Join(items, "\n"),
				Metadata: map[string]string{
					"item_count": strconv.Itoa(len(items)),
				},
			})
		}
		return false
	})

	position := 0
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "p" {
			return true
		}
		text := strings.TrimSpace(nodeText(n))
		if len(text) > 50 {
			chunks = append(chunks, rag.Chunk{
				Kind:    rag.KindText,
				Content: text,
				Metadata: map[string]string{
					"position": strconv.Itoa(position),
				},
			})
		}
		position++
		return false
	})

	return chunks
}

// FullDocumentChunk is the fallback when a page yields no typed chunks.
func FullDocumentChunk(title, text string) rag.Chunk {
	return rag.Chunk{
		Kind:     rag.KindFullDocument,
		Content:  strings.TrimSpace(title + " " + text),
		Metadata: map[string]string{},
	}
}

// extractTableFacts treats each table's first row as headers and every
// following row as one fact candidate: method in the first cell, rate in
// the second. Rows with no usable method+rate pair are dropped.
func extractTableFacts(root *html.Node) []rag.PricingFact {
	var facts []rag.PricingFact

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "table" {
			return true
		}

		var rows [][]string
		walk(n, func(tr *html.Node) bool {
			if tr.Type != html.ElementNode || tr.Data != "tr" {
				return true
			}
			var cells []string
			walk(tr, func(cell *html.Node) bool {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					cells = append(cells, strings.TrimSpace(nodeText(cell)))
					return false
				}
				return true
			})
			rows = append(rows, cells)
			return false
		})

		// rows[0] is the header row.
		for _, row := range rows[min(1, len(rows)):] {
			if fact, ok := factFromTableRow(row); ok {
				facts = append(facts, fact)
			}
		}
		return false
	})

	return facts
}

func factFromTableRow(cells []string) (rag.PricingFact, bool) {
	if len(cells) < 2 {
		return rag.PricingFact{}, false
	}

	methodCell := strings.ToLower(cells[0])
	rateCell := cells[1]
	if methodCell == "" || rateCell == "" {
		return rag.PricingFact{}, false
	}

	method := resolveMethod(methodCell)
	rate, numeric := normalizeRate(rateCell)

	// Unknown method with no numeric rate carries no information.
	if method == rag.MethodUnknown && numeric == nil {
		return rag.PricingFact{}, false
	}

	return rag.PricingFact{
		Product:     "general",
		Method:      method,
		Rate:        rate,
		RateNumeric: numeric,
		Conditions:  strings.Join(cells, " | "),
	}, true
}

// normalizeRate parses a table rate cell: first decimal token wins; a
// digit-less cell saying free/zero normalizes to 0%, matching the line
// rule; anything else keeps the raw cell text with no numeric rate.
func normalizeRate(rateCell string) (string, *float64) {
	if m := rateTokenRe.FindStringSubmatch(rateCell); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return rateCell, &v
		}
	}
	lower := strings.ToLower(rateCell)
	if strings.Contains(lower, "free") || strings.Contains(lower, "zero") {
		zero := 0.0
		return "0%", &zero
	}
	return rateCell, nil
}

// extractSectionFacts scans elements whose class mentions a pricing token,
// tracking a running product label across the section's lines.
func extractSectionFacts(root *html.Node) []rag.PricingFact {
	var facts []rag.PricingFact

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !hasRateClass(n) {
			return true
		}

		product := "general"
		for _, line := range textLines(nodeText(n)) {
			lower := strings.ToLower(line)
			for _, kw := range productKeywords {
				if strings.Contains(lower, kw) {
					product = kw
					break
				}
			}
			if fact, ok := factFromLine(line, product); ok {
				facts = append(facts, fact)
			}
		}
		return false
	})

	return facts
}

// extractTextLineFacts scans every plain text line that mentions a pricing
// trigger, with the product defaulted to "general".
func extractTextLineFacts(text string) []rag.PricingFact {
	var facts []rag.PricingFact

	for _, line := range textLines(text) {
		lower := strings.ToLower(line)
		triggered := false
		for _, t := range pricingLineTriggers {
			if strings.Contains(lower, t) {
				triggered = true
				break
			}
		}
		if !triggered {
			continue
		}
		if fact, ok := factFromLine(line, "general"); ok {
			facts = append(facts, fact)
		}
	}

	return facts
}

// factFromLine is the shared line-extraction rule: a fact is emitted only
// when a formatted rate was determined and the payment method is known.
func factFromLine(line, product string) (rag.PricingFact, bool) {
	lower := strings.ToLower(line)

	method := resolveMethod(lower)
	if method == rag.MethodUnknown {
		return rag.PricingFact{}, false
	}

	var (
		rate    string
		numeric *float64
	)
	if m := lineRateRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			rate = m[0]
			numeric = &v
		}
	}
	if rate == "" && (strings.Contains(lower, "free") || strings.Contains(lower, "zero")) {
		zero := 0.0
		rate = "0%"
		numeric = &zero
	}
	if rate == "" {
		return rag.PricingFact{}, false
	}

	var tier string
	for _, t := range tierTriggers {
		if strings.Contains(lower, t) {
			tier = volumeTierRe.FindString(lower)
			break
		}
	}

	return rag.PricingFact{
		Product:     product,
		Method:      method,
		Rate:        rate,
		RateNumeric: numeric,
		Conditions:  strings.TrimSpace(line),
		VolumeTier:  tier,
	}, true
}

func resolveMethod(lower string) rag.PaymentMethod {
	for _, mk := range methodKeywords {
		if strings.Contains(lower, mk.keyword) {
			return mk.method
		}
	}
	return rag.MethodUnknown
}

func renderFacts(facts []rag.PricingFact) string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		parts := []string{
			fmt.Sprintf("Product: %s", f.Product),
			fmt.Sprintf("Payment: %s", f.Method),
			fmt.Sprintf("Rate: %s", f.Rate),
		}
		if f.VolumeTier != "" {
			parts = append(parts, fmt.Sprintf("Volume: %s", f.VolumeTier))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

func hasRateClass(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		class := strings.ToLower(attr.Val)
		for _, token := range rateClassTokens {
			if strings.Contains(class, token) {
				return true
			}
		}
	}
	return false
}

func textLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// walk visits n and its descendants; fn returning false prunes the subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// nodeText concatenates the text under n, one line per text node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "script", "style", "noscript":
				return false
			}
		}
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// ExtractText flattens a page to its visible text lines.
func ExtractText(root *html.Node) string {
	return nodeText(root)
}

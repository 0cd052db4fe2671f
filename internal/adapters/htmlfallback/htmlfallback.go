// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package htmlfallback is the universal fallback ingestion adapter. It
// fetches a page and extracts a listing through three tiers, in order:
// Schema.org JSON-LD Product data, OpenGraph/Twitter meta tags, and
// finally direct HTML element selectors. It matches every URL (wildcard
// domain), so it only runs when a higher-priority adapter declines or
// fails.
package htmlfallback

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dealbrain/core/internal/adapterrors"
	"github.com/dealbrain/core/internal/adapters/base"
)

const (
	priority         = 5
	maxResponseBytes = 5 * 1024 * 1024
)

// Adapter is the wildcard JSON-LD/meta-tag/HTML-element extractor.
type Adapter struct {
	httpClient *http.Client
	logger     *log.Logger
}

// New builds the fallback adapter with the given request timeout.
func New(timeout time.Duration) *Adapter {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Adapter{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.New(os.Stdout, "[ADAPTER_HTML_FALLBACK] ", log.LstdFlags),
	}
}

func (a *Adapter) Name() string            { return "html_fallback" }
func (a *Adapter) Priority() int           { return priority }
func (a *Adapter) SupportsURL(_ string) bool { return true }

// Extract fetches url and runs the three-tier extraction strategy.
func (a *Adapter) Extract(ctx context.Context, url string) (*base.NormalizedListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, adapterrors.New(adapterrors.NetworkError, "failed to build request", nil)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; dealbraind/1.0)")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, adapterrors.New(adapterrors.NetworkError, err.Error(), map[string]any{"url": url})
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, adapterrors.New(adapterrors.ItemNotFound, "page not found", map[string]any{"url": url})
	}
	if resp.StatusCode != http.StatusOK {
		return nil, adapterrors.New(adapterrors.NetworkError, "unexpected status fetching page", map[string]any{"status_code": resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, adapterrors.New(adapterrors.NetworkError, "failed to read response body", nil)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, adapterrors.New(adapterrors.ParseError, "failed to parse html", nil)
	}

	n := extractJSONLD(doc)
	if n == nil {
		n = extractMetaTags(doc)
	}
	if n == nil {
		n = extractHTMLElements(doc)
	}
	if n == nil {
		return nil, adapterrors.New(adapterrors.NoStructuredData, "no structured data, meta tags, or html elements found", map[string]any{"url": url})
	}

	specs := extractSpecs(n.Description + " " + n.Title)
	mergeSpecs(n, specs)
	return n, nil
}

// jsonldProduct is the minimal Schema.org Product shape this adapter
// understands; retailers vary widely in which fields they populate.
type jsonldProduct struct {
	Type        string      `json:"@type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       any         `json:"image"`
	Brand       jsonldBrand `json:"brand"`
	Offers      any         `json:"offers"`
}

type jsonldBrand struct {
	Name string `json:"name"`
}

type jsonldOffer struct {
	Price        any         `json:"price"`
	PriceCurrency string     `json:"priceCurrency"`
	Availability string      `json:"availability"`
	Seller       jsonldBrand `json:"seller"`
}

func extractJSONLD(doc *html.Node) *base.NormalizedListing {
	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			if attrVal(n, "type") == "application/ld+json" && n.FirstChild != nil {
				scripts = append(scripts, n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, raw := range scripts {
		product, ok := parseProductJSON(raw)
		if !ok {
			continue
		}
		n := productToNormalized(product)
		if n != nil {
			return n
		}
	}
	return nil
}

func parseProductJSON(raw string) (*jsonldProduct, bool) {
	raw = strings.TrimSpace(raw)
	var single jsonldProduct
	if err := json.Unmarshal([]byte(raw), &single); err == nil && strings.EqualFold(single.Type, "Product") {
		return &single, true
	}
	var list []jsonldProduct
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for i := range list {
			if strings.EqualFold(list[i].Type, "Product") {
				return &list[i], true
			}
		}
	}
	var graph struct {
		Graph []jsonldProduct `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(raw), &graph); err == nil {
		for i := range graph.Graph {
			if strings.EqualFold(graph.Graph[i].Type, "Product") {
				return &graph.Graph[i], true
			}
		}
	}
	return nil, false
}

func productToNormalized(p *jsonldProduct) *base.NormalizedListing {
	if p.Name == "" {
		return nil
	}
	offer := firstOffer(p.Offers)
	if offer == nil {
		return nil
	}
	priceVal, ok := parsePrice(offer.Price)
	if !ok {
		return nil
	}

	n := &base.NormalizedListing{
		Title:       p.Name,
		PriceUSD:    &priceVal,
		Currency:    defaultString(offer.PriceCurrency, "USD"),
		Condition:   conditionFromAvailability(offer.Availability),
		Description: p.Description,
		Seller:      firstNonEmpty(offer.Seller.Name, p.Brand.Name),
		Marketplace: "other",
		Images:      imagesFromAny(p.Image),
	}
	n.ExtractedFields = map[string]bool{"title": true, "price": true}
	return n
}

func firstOffer(raw any) *jsonldOffer {
	switch v := raw.(type) {
	case map[string]any:
		return offerFromMap(v)
	case []any:
		var cheapest *jsonldOffer
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				o := offerFromMap(m)
				if o == nil {
					continue
				}
				if cheapest == nil {
					cheapest = o
					continue
				}
				p1, _ := parsePrice(o.Price)
				p2, _ := parsePrice(cheapest.Price)
				if p1 < p2 {
					cheapest = o
				}
			}
		}
		return cheapest
	}
	return nil
}

func offerFromMap(m map[string]any) *jsonldOffer {
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var o jsonldOffer
	if err := json.Unmarshal(b, &o); err != nil {
		return nil
	}
	return &o
}

func imagesFromAny(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var priceCleaner = regexp.MustCompile(`[^0-9.]`)

func parsePrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		cleaned := priceCleaner.ReplaceAllString(v, "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func conditionFromAvailability(availability string) string {
	lower := strings.ToLower(availability)
	switch {
	case strings.Contains(lower, "refurb"):
		return "refurb"
	case strings.Contains(lower, "instock"), strings.Contains(lower, "in_stock"):
		return "new"
	default:
		return "used"
	}
}

// extractMetaTags is the second-tier fallback: OpenGraph and Twitter
// Card meta tags, used by sites that skip structured data but still tag
// their pages for social sharing.
func extractMetaTags(doc *html.Node) *base.NormalizedListing {
	meta := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			key := attrVal(n, "property")
			if key == "" {
				key = attrVal(n, "name")
			}
			if key != "" {
				meta[key] = attrVal(n, "content")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	title := firstNonEmpty(meta["og:title"], meta["twitter:title"])
	priceRaw := firstNonEmpty(meta["og:price:amount"], meta["product:price:amount"], meta["twitter:data1"])
	if title == "" {
		return nil
	}

	extracted := map[string]bool{"title": true}
	var priceVal *float64
	if priceRaw != "" {
		if v, ok := parsePrice(priceRaw); ok {
			priceVal = &v
			extracted["price"] = true
		}
	}

	n := &base.NormalizedListing{
		Title:           title,
		PriceUSD:        priceVal,
		Currency:        defaultString(firstNonEmpty(meta["og:price:currency"], meta["product:price:currency"]), "USD"),
		Description:     meta["og:description"],
		Marketplace:     "other",
		ExtractedFields: extracted,
	}
	if img := firstNonEmpty(meta["og:image"], meta["twitter:image"]); img != "" {
		n.Images = []string{img}
	}
	return n
}

// extractHTMLElements is the last-resort fallback used for sites like
// Amazon that carry neither structured data nor meta tags on the price.
func extractHTMLElements(doc *html.Node) *base.NormalizedListing {
	title := firstText(doc, hasID("productTitle"), hasClass("product-title"), isTag("h1"))
	priceText := firstText(doc, hasClass("a-offscreen"), hasClass("price"), hasAttr("itemprop", "price"))
	if title == "" {
		return nil
	}

	extracted := map[string]bool{"title": true}
	var priceVal *float64
	if priceText != "" {
		if v, ok := parsePrice(priceText); ok {
			priceVal = &v
			extracted["price"] = true
		}
	}

	description := attrValOf(doc, "meta", "name", "description", "content")

	n := &base.NormalizedListing{
		Title:           strings.TrimSpace(title),
		PriceUSD:        priceVal,
		Currency:        "USD",
		Description:     description,
		Marketplace:     "other",
		ExtractedFields: extracted,
	}
	return n
}

// --- small html-node helpers ---

type nodeMatcher func(*html.Node) bool

func hasID(id string) nodeMatcher {
	return func(n *html.Node) bool { return attrVal(n, "id") == id }
}

func hasClass(class string) nodeMatcher {
	return func(n *html.Node) bool {
		classes := strings.Fields(attrVal(n, "class"))
		for _, c := range classes {
			if c == class {
				return true
			}
		}
		return false
	}
}

func hasAttr(key, val string) nodeMatcher {
	return func(n *html.Node) bool { return attrVal(n, key) == val }
}

func isTag(tag string) nodeMatcher {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func firstText(doc *html.Node, matchers ...nodeMatcher) string {
	for _, m := range matchers {
		var found string
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if found != "" {
				return
			}
			if n.Type == html.ElementNode && m(n) {
				found = textContent(n)
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
		if found != "" {
			return found
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func attrVal(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func attrValOf(doc *html.Node, tag, matchKey, matchVal, wantKey string) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag && attrVal(n, matchKey) == matchVal {
			found = attrVal(n, wantKey)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// --- hardware spec regexes for retailer description text ---

var (
	cpuPattern     = regexp.MustCompile(`(?i)(?:Intel|AMD)?\s*(?:Core)?\s*(i[3579]|Ryzen\s*[3579])\s*-?\s*(\d{4,5}[A-Z]*)`)
	storagePattern = regexp.MustCompile(`(?i)(\d+)\s*(GB|TB)\s*(?:SSD|NVMe|HDD|M\.2|SATA|Storage|Drive)`)
	ramPattern     = regexp.MustCompile(`(?i)(\d+)\s*GB\s*(?:RAM|DDR[345]|Memory)?`)
)

type extractedSpecs struct {
	CPUModel  string
	RamGB     int
	StorageGB int
}

// extractSpecs parses CPU/RAM/storage out of free text. Storage is
// matched first and its span blanked out of the text before the RAM
// regex runs, so a "512GB SSD" can't be misread as 512GB of RAM.
func extractSpecs(text string) extractedSpecs {
	var s extractedSpecs
	if text == "" {
		return s
	}
	if m := cpuPattern.FindString(text); m != "" {
		s.CPUModel = strings.TrimSpace(m)
	}

	ramText := text
	if loc := storagePattern.FindStringSubmatchIndex(text); loc != nil {
		m := storagePattern.FindStringSubmatch(text)
		n, _ := strconv.Atoi(m[1])
		if strings.EqualFold(m[2], "TB") {
			n *= 1024
		}
		s.StorageGB = n
		ramText = text[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + text[loc[1]:]
	}

	if m := ramPattern.FindStringSubmatch(ramText); m != nil {
		n, _ := strconv.Atoi(m[1])
		s.RamGB = n
	}
	return s
}

func mergeSpecs(n *base.NormalizedListing, s extractedSpecs) {
	if n.ExtractedFields == nil {
		n.ExtractedFields = map[string]bool{}
	}
	if s.CPUModel != "" {
		n.CPUModel = s.CPUModel
		n.ExtractedFields["cpu_model"] = true
	}
	if s.RamGB > 0 {
		n.RamGB = s.RamGB
		n.ExtractedFields["ram_gb"] = true
	}
	if s.StorageGB > 0 {
		n.StorageGB = s.StorageGB
		n.ExtractedFields["storage_gb"] = true
	}
}

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

// Package ebay implements the highest-priority ingestion adapter: the
// eBay Browse API. It parses an item ID out of the listing URL, fetches
// the item via OAuth-authenticated REST, and maps the response onto
// base.NormalizedListing.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dealbrain/core/internal/adapterrors"
	"github.com/dealbrain/core/internal/adapters/base"
	"github.com/dealbrain/core/internal/adapters/router"
	"github.com/dealbrain/core/internal/adapters/sdk"
)

const (
	apiBase          = "https://api.ebay.com/buy/browse/v1"
	defaultTimeout   = 8 * time.Second
	maxResponseBytes = 2 * 1024 * 1024
	priority         = 1
)

var itemIDPattern = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d{10,13})(?:\?|$|#)`)

// Config configures the eBay adapter.
type Config struct {
	APIKey          string
	TimeoutS        int
	MaxRetries      int
	RequestsPerMin  float64
}

// Adapter extracts listing data from eBay item URLs via the Browse API.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	limiter    *sdk.RateLimiter
	breaker    *sdk.CircuitBreaker
	logger     *log.Logger
}

// New builds the eBay adapter. cfg.APIKey must be set; an adapter built
// without one is still constructible (so the router can be assembled
// before secrets are loaded) but every Extract call fails with
// AdapterDisabled.
func New(cfg Config) *Adapter {
	if cfg.TimeoutS == 0 {
		cfg.TimeoutS = int(defaultTimeout.Seconds())
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RequestsPerMin == 0 {
		cfg.RequestsPerMin = 60
	}
	return &Adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutS) * time.Second},
		limiter:    sdk.NewRateLimiter(cfg.RequestsPerMin/60.0, int(cfg.RequestsPerMin)),
		breaker:    sdk.NewCircuitBreaker(5, 30*time.Second),
		logger:     log.New(os.Stdout, "[ADAPTER_EBAY] ", log.LstdFlags),
	}
}

func (a *Adapter) Name() string  { return "ebay" }
func (a *Adapter) Priority() int { return priority }

// supportedDomains lists the hosts this adapter handles, after
// www./m. stripping; "ebay.com" covers every country-agnostic
// storefront host but deliberately excludes ccTLD variants like
// "ebay.co.uk", which this adapter doesn't parse item IDs from.
var supportedDomains = []string{"ebay.com"}

func (a *Adapter) SupportsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := router.NormalizeDomain(u.Hostname())
	for _, d := range supportedDomains {
		if host == d {
			return true
		}
	}
	return false
}

// Extract fetches and normalizes a single eBay item.
func (a *Adapter) Extract(ctx context.Context, url string) (*base.NormalizedListing, error) {
	if a.cfg.APIKey == "" {
		return nil, adapterrors.New(adapterrors.AdapterDisabled, "ebay api key not configured", nil)
	}
	if expiry, ok := tokenExpiry(a.cfg.APIKey); ok && time.Until(expiry) < tokenRefreshWindow {
		a.logger.Printf("ebay oauth token expires at %s, within refresh window", expiry.Format(time.RFC3339))
	}

	itemID, err := parseItemID(url)
	if err != nil {
		return nil, err
	}

	if err := a.breaker.Allow(); err != nil {
		return nil, adapterrors.New(adapterrors.RateLimited, "ebay circuit breaker open", nil)
	}

	retryCfg := sdk.DefaultRetryConfig()
	retryCfg.MaxRetries = a.cfg.MaxRetries

	item, err := sdk.RetryWithBackoff(ctx, retryCfg, func() (*ebayItem, error) {
		return a.fetchItem(ctx, itemID)
	})
	if err != nil {
		a.breaker.RecordFailure()
		return nil, err
	}
	a.breaker.RecordSuccess()

	return mapToNormalized(item)
}

const tokenRefreshWindow = 5 * time.Minute

// tokenExpiry decodes the "exp" claim from an eBay OAuth bearer token
// without verifying its signature; eBay signs the token, and this
// adapter only needs to know when to prompt a refresh. Opaque
// non-JWT tokens (the common case for a statically configured
// sandbox key) return ok=false and are treated as never expiring.
func tokenExpiry(tokenString string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func parseItemID(url string) (string, error) {
	m := itemIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", adapterrors.New(adapterrors.ParseError, "could not extract ebay item id from url", map[string]any{"url": url})
	}
	return m[1], nil
}

type ebayItem struct {
	ItemID            string           `json:"itemId"`
	Title             string           `json:"title"`
	Price             ebayPrice        `json:"price"`
	Condition         string           `json:"condition"`
	Image             ebayImage        `json:"image"`
	Seller            ebaySeller       `json:"seller"`
	ShortDescription  string           `json:"shortDescription"`
	Description       string           `json:"description"`
	LocalizedAspects  []ebayAspect     `json:"localizedAspects"`
	ItemSpecifics     []ebayAspect     `json:"itemSpecifics"`
}

type ebayPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayImage struct {
	ImageURL string `json:"imageUrl"`
}

type ebaySeller struct {
	Username string `json:"username"`
}

type ebayAspect struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (a *Adapter) fetchItem(ctx context.Context, itemID string) (*ebayItem, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, adapterrors.New(adapterrors.Timeout, "rate limiter wait cancelled", nil)
	}

	endpoint := fmt.Sprintf("%s/item/v1|%s|0", apiBase, itemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, adapterrors.New(adapterrors.NetworkError, "failed to build request", nil)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, adapterrors.New(adapterrors.NetworkError, err.Error(), map[string]any{"item_id": itemID})
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, adapterrors.New(adapterrors.ItemNotFound, fmt.Sprintf("ebay item %s not found", itemID), map[string]any{"item_id": itemID})
	case http.StatusUnauthorized:
		return nil, adapterrors.New(adapterrors.InvalidSchema, "invalid or expired ebay credentials", nil)
	case http.StatusTooManyRequests:
		return nil, adapterrors.New(adapterrors.RateLimited, "ebay api rate limit exceeded", nil)
	}
	if resp.StatusCode >= 500 {
		return nil, adapterrors.New(adapterrors.NetworkError, fmt.Sprintf("ebay api server error: %d", resp.StatusCode), map[string]any{"status_code": resp.StatusCode})
	}
	if resp.StatusCode != http.StatusOK {
		return nil, adapterrors.New(adapterrors.NetworkError, fmt.Sprintf("unexpected ebay api status: %d", resp.StatusCode), map[string]any{"status_code": resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, adapterrors.New(adapterrors.NetworkError, "failed to read response body", nil)
	}

	var item ebayItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, adapterrors.New(adapterrors.ParseError, "failed to decode ebay item json", nil)
	}
	return &item, nil
}

func mapToNormalized(item *ebayItem) (*base.NormalizedListing, error) {
	if item.Title == "" {
		return nil, adapterrors.New(adapterrors.InvalidSchema, "missing required field: title", nil)
	}
	if item.Price.Value == "" {
		return nil, adapterrors.New(adapterrors.InvalidSchema, "missing required field: price.value", nil)
	}

	priceVal, err := strconv.ParseFloat(item.Price.Value, 64)
	if err != nil {
		return nil, adapterrors.New(adapterrors.InvalidSchema, "unparseable price value", map[string]any{"value": item.Price.Value})
	}

	currency := item.Price.Currency
	if currency == "" {
		currency = "USD"
	}

	vendorItemID := item.ItemID
	if strings.HasPrefix(vendorItemID, "v1|") {
		parts := strings.Split(vendorItemID, "|")
		if len(parts) >= 2 {
			vendorItemID = parts[1]
		}
	}

	description := item.ShortDescription
	if description == "" {
		description = item.Description
	}

	var images []string
	if item.Image.ImageURL != "" {
		images = append(images, item.Image.ImageURL)
	}

	aspects := item.LocalizedAspects
	if len(aspects) == 0 {
		aspects = item.ItemSpecifics
	}

	extracted := map[string]bool{"title": true, "price": true}
	n := &base.NormalizedListing{
		Title:        item.Title,
		PriceUSD:     &priceVal,
		Currency:     currency,
		Condition:    normalizeCondition(item.Condition),
		Images:       images,
		Seller:       item.Seller.Username,
		Marketplace:  "ebay",
		VendorItemID: vendorItemID,
		Description:  description,
	}

	if cpu := extractCPU(aspects); cpu != "" {
		n.CPUModel = cpu
		extracted["cpu_model"] = true
	}
	if ram, ok := extractRAMGB(aspects); ok {
		n.RamGB = ram
		extracted["ram_gb"] = true
	}
	if storage, ok := extractStorageGB(aspects); ok {
		n.StorageGB = storage
		extracted["storage_gb"] = true
	}
	n.ExtractedFields = extracted
	return n, nil
}

func normalizeCondition(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "new"):
		return "new"
	case strings.Contains(lower, "refurb"):
		return "refurb"
	default:
		return "used"
	}
}

var ramPattern = regexp.MustCompile(`(?i)(\d+)\s*GB`)

func extractCPU(aspects []ebayAspect) string {
	keywords := []string{"processor", "cpu"}
	for _, asp := range aspects {
		name := strings.ToLower(asp.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return strings.TrimSpace(asp.Value)
			}
		}
	}
	return ""
}

func extractRAMGB(aspects []ebayAspect) (int, bool) {
	keywords := []string{"ram", "memory"}
	for _, asp := range aspects {
		name := strings.ToLower(asp.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				if m := ramPattern.FindStringSubmatch(asp.Value); m != nil {
					n, err := strconv.Atoi(m[1])
					if err == nil {
						return n, true
					}
				}
			}
		}
	}
	return 0, false
}

func extractStorageGB(aspects []ebayAspect) (int, bool) {
	keywords := []string{"ssd", "storage", "hard drive", "capacity"}
	for _, asp := range aspects {
		name := strings.ToLower(asp.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				if m := ramPattern.FindStringSubmatch(asp.Value); m != nil {
					n, err := strconv.Atoi(m[1])
					if err == nil {
						if strings.Contains(strings.ToLower(asp.Value), "tb") {
							n *= 1024
						}
						return n, true
					}
				}
			}
		}
	}
	return 0, false
}

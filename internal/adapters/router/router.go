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

// Package router selects which ingestion adapter handles a given listing
// URL: domain-match candidates, sorted by priority, first match wins.
package router

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dealbrain/core/internal/adapterrors"
	"github.com/dealbrain/core/internal/adapters/base"
)

// Router holds the registered adapters and selects among them per URL.
type Router struct {
	mu       sync.RWMutex
	adapters []base.Adapter
	disabled map[string]bool
	logger   *log.Logger
}

// New builds a router with no adapters registered.
func New() *Router {
	return &Router{
		adapters: make([]base.Adapter, 0, 4),
		disabled: make(map[string]bool),
		logger:   log.New(os.Stdout, "[ADAPTER_ROUTER] ", log.LstdFlags),
	}
}

// Register adds an adapter to the routing table.
func (r *Router) Register(a base.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, a)
	r.logger.Printf("registered adapter %s (priority %d)", a.Name(), a.Priority())
}

// Disable marks an adapter unavailable for selection without removing it
// from the registry (used to route around a tripped circuit breaker).
func (r *Router) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[name] = true
}

// Enable clears a previous Disable.
func (r *Router) Enable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.disabled, name)
}

// candidates returns adapters that support url, sorted by ascending
// priority (lower runs first); ties keep registration order.
func (r *Router) candidates(url string) []base.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []base.Adapter
	for _, a := range r.adapters {
		if r.disabled[a.Name()] {
			continue
		}
		if a.SupportsURL(url) {
			matches = append(matches, a)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() < matches[j].Priority()
	})
	return matches
}

// SelectAdapter returns the highest-priority adapter supporting url.
func (r *Router) SelectAdapter(url string) (base.Adapter, error) {
	matches := r.candidates(url)
	if len(matches) == 0 {
		return nil, adapterrors.New(adapterrors.NoAdapterFound, "no adapter matches url", map[string]any{"url": url})
	}
	return matches[0], nil
}

// Extract tries candidate adapters for url in priority order, falling
// through to the next candidate on any error, and returns the first
// successful normalized extraction.
func (r *Router) Extract(ctx context.Context, url string) (*base.NormalizedListing, string, error) {
	matches := r.candidates(url)
	if len(matches) == 0 {
		return nil, "", adapterrors.New(adapterrors.NoAdapterFound, "no adapter matches url", map[string]any{"url": url})
	}

	var lastErr error
	for _, a := range matches {
		listing, err := a.Extract(ctx, url)
		if err != nil {
			lastErr = err
			r.logger.Printf("adapter %s failed for %s: %v", a.Name(), url, err)
			continue
		}
		if missing := listing.Validate(); len(missing) > 0 {
			lastErr = adapterrors.New(adapterrors.InvalidSchema, "missing required fields", map[string]any{"missing_fields": missing})
			continue
		}
		return listing, a.Name(), nil
	}
	return nil, "", lastErr
}

// NormalizeDomain strips the www./m. subdomain prefixes used for
// domain matching, mirroring the matching rule that "ebay.com" should
// match "www.ebay.com" and "m.ebay.com" but not "ebay.co.uk".
func NormalizeDomain(host string) string {
	host = strings.ToLower(host)
	for _, prefix := range []string{"www.", "m."} {
		if strings.HasPrefix(host, prefix) {
			return strings.TrimPrefix(host, prefix)
		}
	}
	return host
}

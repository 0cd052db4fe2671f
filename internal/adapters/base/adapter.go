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

// Package base defines the common contract every ingestion adapter
// implements: given a listing URL, extract() it into a NormalizedListing.
// All adapters produce the same output shape; the router tries them in
// priority order and the first successful extraction wins.
package base

import "context"

// NormalizedListing is the common output shape every adapter produces,
// regardless of source (eBay's API, a site's JSON-LD block, or a bare
// HTML selector scrape).
type NormalizedListing struct {
	Title          string
	PriceUSD       *float64
	Currency       string
	Condition      string
	Images         []string
	Seller         string
	Marketplace    string
	VendorItemID   string
	Description    string
	CPUModel       string
	GPUModel       string
	RamGB          int
	StorageGB      int
	StorageType    string
	PortsRaw       string
	Attributes     map[string]any

	// ExtractedFields lists which of the above were actually populated
	// from source data, vs. left at zero value; used to build the
	// partial-import listing's extraction_metadata/missing_fields.
	ExtractedFields map[string]bool
}

// Adapter is the interface every ingestion source implements.
type Adapter interface {
	// Name identifies the adapter, e.g. "ebay", "html_fallback".
	Name() string

	// SupportsURL reports whether this adapter can handle the given URL's
	// domain.
	SupportsURL(url string) bool

	// Priority orders adapters within the router; lower runs first.
	Priority() int

	// Extract fetches and normalizes the listing at url.
	Extract(ctx context.Context, url string) (*NormalizedListing, error)
}

// RequiredFields lists the fields an extraction must populate to be
// usable; used by the router's validation step before accepting a
// result. Price is deliberately not required here: an extraction with
// a title but no parseable price is a legitimate partial result, not a
// failed one, and flows through to persist as a partial-quality listing.
var RequiredFields = []string{"title"}

// Validate checks that a NormalizedListing carries the minimum fields a
// caller can act on. A missing price doesn't fail validation; it's
// recorded as a missing field on the persisted listing instead.
func (n *NormalizedListing) Validate() []string {
	var missing []string
	if n.Title == "" {
		missing = append(missing, "title")
	}
	return missing
}

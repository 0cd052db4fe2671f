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

// Package dedup computes a listing's dedup_hash and matches incoming
// normalized extractions against previously stored listings. Vendor ID
// identity wins over hash identity whenever both are available.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/dealbrain/core/internal/adapters/base"
)

// Store is the lookup surface dedup needs from the persistence layer.
// internal/storage/postgres implements this.
type Store interface {
	FindByVendorID(ctx context.Context, marketplace, vendorItemID string) (int64, bool, error)
	FindByHash(ctx context.Context, hash string) (int64, bool, error)
}

// Result describes the outcome of a dedup lookup.
type Result struct {
	Hash          string
	MatchedID     int64
	Matched       bool
	MatchedByVendorID bool
}

var nonAlphanumericSpace = regexp.MustCompile(`[^a-z0-9 ]+`)
var collapseSpace = regexp.MustCompile(` +`)

// normalizeText lowercases, strips punctuation, and collapses whitespace
// so cosmetic differences in listing titles don't defeat hash matching.
func normalizeText(s string) string {
	lower := strings.ToLower(s)
	stripped := nonAlphanumericSpace.ReplaceAllString(lower, "")
	collapsed := collapseSpace.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// GenerateHash builds the SHA-256 content hash for a normalized
// extraction: title, price, seller, marketplace, and condition, each
// normalized so case/whitespace/punctuation variation doesn't change the
// hash.
func GenerateHash(n *base.NormalizedListing) string {
	var priceStr string
	if n.PriceUSD != nil {
		priceStr = strconv.FormatFloat(*n.PriceUSD, 'f', 2, 64)
	}

	parts := []string{
		normalizeText(n.Title),
		priceStr,
		normalizeText(n.Seller),
		normalizeText(n.Marketplace),
		normalizeText(n.Condition),
	}
	joined := strings.Join(parts, "|")

	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// FindDuplicate looks for an existing listing matching n: first by
// (marketplace, vendor_item_id) if both are present, then by content
// hash. Vendor ID match always takes priority over a hash match.
func FindDuplicate(ctx context.Context, store Store, n *base.NormalizedListing) (Result, error) {
	hash := GenerateHash(n)
	result := Result{Hash: hash}

	if n.VendorItemID != "" && n.Marketplace != "" {
		id, found, err := store.FindByVendorID(ctx, n.Marketplace, n.VendorItemID)
		if err != nil {
			return result, err
		}
		if found {
			result.Matched = true
			result.MatchedByVendorID = true
			result.MatchedID = id
			return result, nil
		}
	}

	id, found, err := store.FindByHash(ctx, hash)
	if err != nil {
		return result, err
	}
	if found {
		result.Matched = true
		result.MatchedID = id
	}
	return result, nil
}

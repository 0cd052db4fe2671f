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

// Package events publishes the typed notifications the ingestion and
// valuation pipelines emit after a successful, already-committed write.
// Publish is fire-and-forget: a Redis outage must never fail the
// business operation that triggered the event, only be logged.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dealbrain/core/internal/logging"
)

// Channel is the single pub/sub channel every event type is published
// to.
const Channel = "dealbrain:events"

// Type identifies one of the event shapes a subscriber may receive.
type Type string

const (
	ListingCreated        Type = "listing.created"
	ListingUpdated        Type = "listing.updated"
	ListingDeleted        Type = "listing.deleted"
	ValuationRecalculated Type = "valuation.recalculated"
	ImportCompleted       Type = "import.completed"
	PriceChanged          Type = "price.changed"
)

// Message is the envelope published on Channel: {type, data}.
type Message struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// ListingCreatedData is the payload for ListingCreated.
type ListingCreatedData struct {
	ListingID int64     `json:"listing_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ListingUpdatedData is the payload for ListingUpdated.
type ListingUpdatedData struct {
	ListingID int64     `json:"listing_id"`
	Changes   []string  `json:"changes"`
	Timestamp time.Time `json:"timestamp"`
}

// ListingDeletedData is the payload for ListingDeleted.
type ListingDeletedData struct {
	ListingID int64     `json:"listing_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ValuationRecalculatedData is the payload for ValuationRecalculated.
type ValuationRecalculatedData struct {
	ListingIDs []int64   `json:"listing_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// ImportCompletedData is the payload for ImportCompleted.
type ImportCompletedData struct {
	ImportJobID      string    `json:"import_job_id"`
	ListingsCreated  int       `json:"listings_created"`
	ListingsUpdated  int       `json:"listings_updated"`
	Timestamp        time.Time `json:"timestamp"`
}

// PriceChangedData is the payload for PriceChanged.
type PriceChangedData struct {
	ListingID int64     `json:"listing_id"`
	OldPrice  *float64  `json:"old_price"`
	NewPrice  *float64  `json:"new_price"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the injectable side-effect boundary business logic
// depends on. Bus is the Redis-backed production implementation; NoOp is
// the test double.
type Publisher interface {
	Publish(ctx context.Context, t Type, data any)
}

// Bus publishes events over a Redis pub/sub channel. Failures are
// logged, never returned.
type Bus struct {
	client *redis.Client
	logger *logging.Logger
}

// NewBus builds a Bus around an already-connected client.
func NewBus(client *redis.Client, logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.New("events")
	}
	return &Bus{client: client, logger: logger}
}

// Publish marshals {type, data} and publishes it to Channel. Errors are
// logged and swallowed.
func (b *Bus) Publish(ctx context.Context, t Type, data any) {
	msg := Message{Type: t, Data: data}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("", "", "failed to marshal event", err, map[string]any{"event_type": string(t)})
		return
	}
	if err := b.client.Publish(ctx, Channel, payload).Err(); err != nil {
		b.logger.Error("", "", "failed to publish event", err, map[string]any{"event_type": string(t)})
	}
}

// NoOp is a Publisher that discards every event, for tests and for
// business-logic paths exercised before a bus is wired up.
type NoOp struct{}

// Publish implements Publisher by doing nothing.
func (NoOp) Publish(context.Context, Type, any) {}

// Recording is a Publisher that appends every call it receives, for
// tests that assert on which events a code path emitted.
type Recording struct {
	Events []Message
}

// Publish implements Publisher by recording the call.
func (r *Recording) Publish(_ context.Context, t Type, data any) {
	r.Events = append(r.Events, Message{Type: t, Data: data})
}

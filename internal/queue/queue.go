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

// Package queue implements the recalculation queue: a fire-and-forget
// enqueue of listing IDs needing a fresh valuation pass, coalesced so a
// burst of edits to the same rule doesn't schedule the same listing
// twice inside one short window. The broker is a Redis list; workers
// pop with BLPOP-style blocking reads.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/dealbrain/core/internal/logging"
)

// Reason identifies why a recalculation was requested.
type Reason string

const (
	ReasonRulesetCreated   Reason = "ruleset_created"
	ReasonRulesetUpdated   Reason = "ruleset_updated"
	ReasonRulesetDeleted   Reason = "ruleset_deleted"
	ReasonGroupCreated     Reason = "rule_group_created"
	ReasonGroupUpdated     Reason = "rule_group_updated"
	ReasonRuleCreated      Reason = "rule_created"
	ReasonRuleUpdated      Reason = "rule_updated"
	ReasonRuleDeleted      Reason = "rule_deleted"
	ReasonFieldUpdate      Reason = "field_update"
)

const (
	listKey          = "dealbrain:recalc:queue"
	coalesceKeyFmt   = "dealbrain:recalc:coalesce:%d:%s"
	coalesceWindow   = 10 * time.Second
)

// Job is one unit of recalculation work: recompute the valuation
// breakdown and metrics for ListingID.
type Job struct {
	ID        string    `json:"id"`
	ListingID int64     `json:"listing_id"`
	Reason    Reason    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RulesetCandidateLookup resolves which listing IDs to recalculate for a
// given ruleset. The internal/storage/postgres implementation returns
// only listings whose static ruleset_id override names it; listings that
// select the ruleset dynamically through its conditions are not included.
type RulesetCandidateLookup interface {
	ListingIDsForRuleset(ctx context.Context, rulesetID int64) ([]int64, error)
}

// Queue wraps a Redis client as the recalculation broker.
type Queue struct {
	client *redis.Client
	logger *logging.Logger
}

// New builds a Queue around an already-connected client.
func New(client *redis.Client, logger *logging.Logger) *Queue {
	if logger == nil {
		logger = logging.New("queue")
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueListings schedules recalculation for each listing ID, one job
// per (listing_id, reason) pair, coalesced within coalesceWindow: a
// second enqueue for the same pair while the first is still in its
// window is silently dropped rather than double-scheduled.
func (q *Queue) EnqueueListings(ctx context.Context, listingIDs []int64, reason Reason) error {
	for _, id := range listingIDs {
		if err := q.enqueueOne(ctx, id, reason); err != nil {
			q.logger.Error("", "", "failed to enqueue recalculation job", err, map[string]any{
				"listing_id": id, "reason": string(reason),
			})
		}
	}
	return nil
}

// EnqueueRuleset resolves the listings lookup returns for rulesetID and
// enqueues each, coalesced the same as EnqueueListings.
func (q *Queue) EnqueueRuleset(ctx context.Context, lookup RulesetCandidateLookup, rulesetID int64, reason Reason) error {
	ids, err := lookup.ListingIDsForRuleset(ctx, rulesetID)
	if err != nil {
		return fmt.Errorf("queue: resolve listings for ruleset %d: %w", rulesetID, err)
	}
	return q.EnqueueListings(ctx, ids, reason)
}

func (q *Queue) enqueueOne(ctx context.Context, listingID int64, reason Reason) error {
	coalesceKey := fmt.Sprintf(coalesceKeyFmt, listingID, reason)
	set, err := q.client.SetNX(ctx, coalesceKey, "1", coalesceWindow).Result()
	if err != nil {
		return err
	}
	if !set {
		return nil
	}

	job := Job{
		ID:         uuid.NewString(),
		ListingID:  listingID,
		Reason:     reason,
		EnqueuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	return q.client.RPush(ctx, listKey, payload).Err()
}

// Dequeue blocks up to timeout for the next job, returning (nil, nil)
// on a timeout with nothing available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BLPop(ctx, timeout, listKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("queue: unmarshal job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of jobs waiting in the list, used by the
// observability gauge tracking queue backlog.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, listKey).Result()
}

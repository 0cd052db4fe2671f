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

// Package cache wraps a Redis client for the two cache concerns the
// ingestion core owns: the keyset-pagination total-row-count cache and
// the card-image cache invalidation trigger set. It is a thin typed
// layer over go-redis, not a general cache abstraction.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// TotalCountKey is the cache key for the cached aggregate listing count.
const TotalCountKey = "listings:total_count"

// TotalCountTTL is the TTL assigned the cached total.
const TotalCountTTL = 5 * time.Minute

// Cache is the Redis-backed cache the listing list endpoint and the
// card-image invalidation hooks share.
type Cache struct {
	client *redis.Client
}

// New builds a Cache around an already-connected client. Lifecycle is
// owned by the caller; Cache never dials on its own.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Dial constructs a go-redis client from a connection URL, following the
// teacher's connectors/redis pool-sizing convention.
func Dial(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 100
	opts.MinIdleConns = 10
	return redis.NewClient(opts), nil
}

// GetTotalCount reads the cached listing count. ok is false on a cache
// miss (key absent) or a malformed cached value.
func (c *Cache) GetTotalCount(ctx context.Context) (count int64, ok bool, err error) {
	raw, err := c.client.Get(ctx, TotalCountKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetTotalCount caches count for TotalCountTTL.
func (c *Cache) SetTotalCount(ctx context.Context, count int64) error {
	return c.client.Set(ctx, TotalCountKey, count, TotalCountTTL).Err()
}

// InvalidateTotalCount drops the cached count, called whenever a listing
// is created or deleted (its presence changes the aggregate).
func (c *Cache) InvalidateTotalCount(ctx context.Context) error {
	return c.client.Del(ctx, TotalCountKey).Err()
}

// InvalidatePattern deletes every key matching a glob pattern (e.g.
// "listing_card:123:*"), used when a listing's display-affecting
// fields change. Uses SCAN rather than KEYS to avoid blocking Redis on
// a large keyspace.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// CardInvalidationFields is the set of listing columns whose change
// triggers a card-image cache invalidation.
var CardInvalidationFields = map[string]bool{
	"price_usd": true, "adjusted_price_usd": true, "cpu_id": true, "gpu_id": true,
	"ram_gb": true, "primary_storage_gb": true, "primary_storage_type": true,
	"secondary_storage_gb": true, "secondary_storage_type": true, "title": true,
	"manufacturer": true, "series": true, "score_composite": true,
}

// ShouldInvalidateCard reports whether any of the changed field names
// intersects CardInvalidationFields.
func ShouldInvalidateCard(changed []string) bool {
	for _, f := range changed {
		if CardInvalidationFields[f] {
			return true
		}
	}
	return false
}

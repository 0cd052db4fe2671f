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

package sdk

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker's current posture.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// ErrCircuitOpen is returned by Allow when the breaker is tripped and the
// cooldown has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreaker trips after a run of consecutive failures against one
// upstream host (the eBay adapter holds one for the eBay API) and holds
// it open for Cooldown before allowing a single half-open probe.
type CircuitBreaker struct {
	threshold int
	cooldown  time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
}

// NewCircuitBreaker builds a breaker that opens after threshold
// consecutive failures and stays open for cooldown.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		state:     Closed,
	}
}

// Allow reports whether a call may proceed, transitioning Open->HalfOpen
// once the cooldown has elapsed.
func (c *CircuitBreaker) Allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Closed:
		return nil
	case Open:
		if time.Since(c.openedAt) >= c.cooldown {
			c.state = HalfOpen
			return nil
		}
		return ErrCircuitOpen
	case HalfOpen:
		return nil
	default:
		return nil
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (c *CircuitBreaker) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.state = Closed
}

// RecordFailure increments the failure count, tripping the breaker once
// threshold consecutive failures (or a failed half-open probe) occurs.
func (c *CircuitBreaker) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == HalfOpen {
		c.state = Open
		c.openedAt = time.Now()
		return
	}

	c.failures++
	if c.failures >= c.threshold {
		c.state = Open
		c.openedAt = time.Now()
	}
}

// CurrentState returns the breaker's state, for health reporting.
func (c *CircuitBreaker) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

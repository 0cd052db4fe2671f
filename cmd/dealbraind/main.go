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

// Package main is the entry point for dealbraind, the Deal Brain
// ingestion and valuation daemon.
//
// dealbraind:
//   - Extracts listings from configured marketplaces via the adapter
//     router
//   - Persists listings, resolving CPU/GPU/RAM/storage against the
//     shared catalog
//   - Applies the active valuation ruleset and derives performance
//     metrics
//   - Drains the recalculation queue whenever a ruleset, rule, or field
//     edit invalidates previously computed valuations
//
// Usage:
//
//	./dealbraind
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8090)
//	DATABASE_DSN - PostgreSQL connection string
//	REDIS_URL - Redis connection string (default: redis://localhost:6379/0)
//	INGESTION_EBAY_API_KEY - eBay Browse API key
//	DEALBRAIN_CONFIG_FILE - optional YAML file providing config defaults
package main

func main() {
	Run()
}

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

// Package observability registers the process's Prometheus collectors:
// adapter call outcomes and latency, rule evaluation duration, and
// recalculation queue depth.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AdapterCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealbrain_adapter_calls_total",
			Help: "Total adapter fetch attempts, labeled by adapter name and outcome.",
		},
		[]string{"adapter", "outcome"},
	)

	AdapterCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealbrain_adapter_call_duration_seconds",
			Help:    "Adapter fetch latency in seconds, labeled by adapter name.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"adapter"},
	)

	RuleEvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealbrain_rule_evaluation_duration_seconds",
			Help:    "Wall-clock time to evaluate one listing's valuation breakdown.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	RecalcQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dealbrain_recalc_queue_depth",
			Help: "Number of jobs currently waiting in the recalculation queue.",
		},
	)

	ImportJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealbrain_import_jobs_total",
			Help: "Total completed bulk-import jobs, labeled by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		AdapterCallsTotal,
		AdapterCallDuration,
		RuleEvaluationDuration,
		RecalcQueueDepth,
		ImportJobsTotal,
	)
}

// ObserveAdapterCall records one adapter call's outcome and duration.
func ObserveAdapterCall(adapter, outcome string, d time.Duration) {
	AdapterCallsTotal.WithLabelValues(adapter, outcome).Inc()
	AdapterCallDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

// ObserveRuleEvaluation records one valuation pass's wall-clock time.
func ObserveRuleEvaluation(d time.Duration) {
	RuleEvaluationDuration.Observe(d.Seconds())
}

// SetRecalcQueueDepth updates the queue-depth gauge from a fresh LLEN
// read.
func SetRecalcQueueDepth(depth int64) {
	RecalcQueueDepth.Set(float64(depth))
}

// ObserveImportJob records one completed bulk-import job's outcome.
func ObserveImportJob(outcome string) {
	ImportJobsTotal.WithLabelValues(outcome).Inc()
}

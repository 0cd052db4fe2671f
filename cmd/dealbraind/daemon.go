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

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dealbrain/core/internal/adapters/ebay"
	"github.com/dealbrain/core/internal/adapters/htmlfallback"
	"github.com/dealbrain/core/internal/adapters/router"
	"github.com/dealbrain/core/internal/baseline"
	"github.com/dealbrain/core/internal/cache"
	"github.com/dealbrain/core/internal/config"
	"github.com/dealbrain/core/internal/events"
	"github.com/dealbrain/core/internal/ingest"
	"github.com/dealbrain/core/internal/logging"
	"github.com/dealbrain/core/internal/observability"
	"github.com/dealbrain/core/internal/queue"
	"github.com/dealbrain/core/internal/storage/postgres"
)

// Services bundles every long-lived dependency the HTTP handlers and
// background workers share. Constructed once in Run and passed by
// reference rather than held in package-level state, so a future test
// harness can spin up a second instance without global collisions.
type Services struct {
	Config   *config.Config
	Repo     *postgres.PostgresRepository
	Redis    *redis.Client
	Cache    *cache.Cache
	Queue    *queue.Queue
	Bus      *events.Bus
	Pipeline *ingest.Pipeline
	Jobs     *ingest.JobStore
	Baseline baseline.Source
	Logger   *logging.Logger
}

// Run initializes every component, starts the HTTP surface and the
// recalculation worker pool, and blocks until the process receives a
// termination signal.
func Run() {
	logger := logging.New("dealbraind")

	cfg, err := config.LoadFromEnv(os.Getenv("DEALBRAIN_CONFIG_FILE"))
	if err != nil {
		logger.Error("", "", "failed to load configuration", err, nil)
		os.Exit(1)
	}

	svc, err := buildServices(cfg, logger)
	if err != nil {
		logger.Error("", "", "failed to initialize services", err, nil)
		os.Exit(1)
	}
	defer svc.Redis.Close()
	defer svc.Repo.DB().Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const workerCount = 4
	for i := 0; i < workerCount; i++ {
		go svc.runRecalcWorker(ctx)
	}
	go svc.pollQueueDepth(ctx)

	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "8090"),
		Handler: buildRouter(svc),
	}

	go func() {
		logger.Info("", "", "dealbraind listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("", "", "http server stopped unexpectedly", err, nil)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("", "", "shutting down", nil)
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("", "", "graceful shutdown failed", err, nil)
	}
}

func buildServices(cfg *config.Config, logger *logging.Logger) (*Services, error) {
	db, err := postgres.Open(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewPostgresRepository(db)

	redisClient, err := cache.Dial(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	r := router.New()
	if ebayCfg, ok := cfg.Adapters["ebay"]; ok && ebayCfg.Enabled {
		r.Register(ebay.New(ebay.Config{
			APIKey:     ebayCfg.APIKey,
			TimeoutS:   ebayCfg.TimeoutS,
			MaxRetries: ebayCfg.Retries,
		}))
	}
	if jsonldCfg, ok := cfg.Adapters["jsonld"]; ok && jsonldCfg.Enabled {
		r.Register(htmlfallback.New(jsonldCfg.Timeout()))
	} else {
		r.Register(htmlfallback.New(0))
	}

	bus := events.NewBus(redisClient, logging.New("events"))
	pipeline := ingest.New(r, repo, bus, logging.New("ingest"))

	baselineSource, err := baseline.ResolveSource(context.Background(), cfg.ImportRoot)
	if err != nil {
		return nil, err
	}

	return &Services{
		Config:   cfg,
		Repo:     repo,
		Redis:    redisClient,
		Cache:    cache.New(redisClient),
		Queue:    queue.New(redisClient, logging.New("queue")),
		Bus:      bus,
		Pipeline: pipeline,
		Jobs:     ingest.NewJobStore(),
		Baseline: baselineSource,
		Logger:   logger,
	}, nil
}

// runRecalcWorker drains the recalculation queue until ctx is canceled.
// Each popped job's failure is logged and dropped rather than retried;
// the ruleset/rule edit that enqueued it can always be re-saved to
// enqueue it again.
func (s *Services) runRecalcWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := s.Queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.Logger.Error("", "", "recalc dequeue failed", err, nil)
			continue
		}
		if job == nil {
			continue
		}

		if err := s.Pipeline.Recalculate(ctx, job.ListingID); err != nil {
			s.Logger.Error("", "", "recalculation failed", err, map[string]any{
				"listing_id": job.ListingID, "reason": string(job.Reason),
			})
		}
	}
}

// pollQueueDepth refreshes the queue-depth gauge every 10s so a
// Prometheus scrape sees a recent value without the gauge needing a
// push on every enqueue/dequeue.
func (s *Services) pollQueueDepth(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := s.Queue.Depth(ctx)
			if err != nil {
				continue
			}
			observability.SetRecalcQueueDepth(depth)
		}
	}
}

func buildRouter(svc *Services) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", svc.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/v1/listings/ingest", svc.ingestHandler).Methods("POST")
	r.HandleFunc("/api/v1/listings/import", svc.bulkImportHandler).Methods("POST")
	r.HandleFunc("/api/v1/listings/import/{id}", svc.jobStatusHandler).Methods("GET")
	r.HandleFunc("/api/v1/listings/{id}/complete", svc.completePartialHandler).Methods("POST")
	r.HandleFunc("/api/v1/listings/{id}/recalculate", svc.recalculateHandler).Methods("POST")
	r.HandleFunc("/api/v1/baseline/load", svc.loadBaselineHandler).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Services) healthHandler(w http.ResponseWriter, r *http.Request) {
	dbOK := s.Repo.Ping(r.Context()) == nil
	_, redisErr := s.Redis.Ping(r.Context()).Result()

	status := "healthy"
	code := http.StatusOK
	if !dbOK || redisErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"components": map[string]bool{
			"database": dbOK,
			"redis":    redisErr == nil,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (s *Services) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	listing, err := s.Pipeline.IngestURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

func (s *Services) bulkImportHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}

	job := s.Jobs.RunBulkImport(r.Context(), s.Pipeline, req.URLs)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Services) jobStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, ok := s.Jobs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Services) completePartialHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := s.Pipeline.CompletePartialImport(r.Context(), id, fields)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Services) recalculateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	if err := s.Pipeline.Recalculate(r.Context(), id); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadBaselineHandler fetches a baseline ruleset document from the
// configured import root (local filesystem or S3) and materializes it,
// adopting it only if its content hash hasn't already been seen.
func (s *Services) loadBaselineHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	raw, err := s.Baseline.Fetch(r.Context(), req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rs, err := baseline.Load(r.Context(), s.Repo, raw, req.Location)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealbrain/core/internal/events"
	"github.com/dealbrain/core/internal/observability"
)

// JobStore tracks bulk-import jobs in memory. Jobs are bounded by the
// process lifetime; a restart loses in-flight job history, acceptable
// since a job's authoritative outcome is the listings it created.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *JobStore) put(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

// RunBulkImport submits urls to the pipeline one at a time, recording
// each URL's outcome, and returns the completed job. A single URL's
// failure doesn't abort the batch — every URL gets an attempt and a
// recorded status.
func (s *JobStore) RunBulkImport(ctx context.Context, p *Pipeline, urls []string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobRunning,
		Items:     make([]ItemResult, 0, len(urls)),
		StartedAt: time.Now().UTC(),
	}
	s.put(job)

	created, updated := 0, 0
	for _, url := range urls {
		item := ItemResult{URL: url, StartedAt: time.Now().UTC()}
		listing, err := p.IngestURL(ctx, url)
		item.FinishedAt = time.Now().UTC()
		if err != nil {
			item.Status = ItemFailed
			item.Error = err.Error()
		} else {
			item.ListingID = listing.ID
			if listing.Quality == "partial" {
				item.Status = ItemPartial
			} else {
				item.Status = ItemSucceeded
			}
			created++
		}
		job.Items = append(job.Items, item)
		s.put(job)
	}

	job.Status = JobCompleted
	job.FinishedAt = time.Now().UTC()
	s.put(job)

	outcome := "success"
	if job.Failed() > 0 {
		outcome = "partial_failure"
	}
	observability.ObserveImportJob(outcome)

	p.Events.Publish(ctx, events.ImportCompleted, events.ImportCompletedData{
		ImportJobID:     job.ID,
		ListingsCreated: created,
		ListingsUpdated: updated,
		Timestamp:       job.FinishedAt,
	})

	return job
}

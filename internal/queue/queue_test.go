// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, nil), mr
}

func TestEnqueueListingsThenDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueListings(ctx, []int64{1, 2}, ReasonRuleUpdated))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, int64(1), job.ListingID)
	assert.Equal(t, ReasonRuleUpdated, job.Reason)
}

func TestEnqueueCoalescesWithinWindow(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueListings(ctx, []int64{1}, ReasonFieldUpdate))
	require.NoError(t, q.EnqueueListings(ctx, []int64{1}, ReasonFieldUpdate))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestEnqueueDistinctReasonsNotCoalesced(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueListings(ctx, []int64{1}, ReasonFieldUpdate))
	require.NoError(t, q.EnqueueListings(ctx, []int64{1}, ReasonRuleUpdated))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}

type fakeLookup struct {
	ids []int64
}

func (f fakeLookup) ListingIDsForRuleset(ctx context.Context, rulesetID int64) ([]int64, error) {
	return f.ids, nil
}

func TestEnqueueRulesetResolvesCandidates(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueRuleset(ctx, fakeLookup{ids: []int64{5, 6, 7}}, 1, ReasonRulesetUpdated))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), depth)
}

func TestDequeueTimeoutReturnsNil(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Dequeue(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

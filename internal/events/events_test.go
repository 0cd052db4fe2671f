// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishesEnvelopeOnChannel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	bus := NewBus(client, nil)
	bus.Publish(ctx, ListingCreated, ListingCreatedData{ListingID: 7, Timestamp: time.Unix(0, 0).UTC()})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Message
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, ListingCreated, got.Type)
}

func TestNoOpPublisherDiscardsEvents(t *testing.T) {
	var p Publisher = NoOp{}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), ListingDeleted, ListingDeletedData{ListingID: 1})
	})
}

func TestRecordingPublisherCapturesEvents(t *testing.T) {
	rec := &Recording{}
	var p Publisher = rec
	p.Publish(context.Background(), PriceChanged, PriceChangedData{ListingID: 3})

	require.Len(t, rec.Events, 1)
	assert.Equal(t, PriceChanged, rec.Events[0].Type)
}

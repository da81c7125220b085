package main

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/poyrazK/dnsaas/internal/adapters/events"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RequiresRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	err := run(context.Background(), "", "", io.Discard)
	assert.ErrorContains(t, err, "redis.addr")
}

func TestRun_RejectsUnknownKind(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	err := run(context.Background(), "", "zone", io.Discard)
	assert.ErrorContains(t, err, "unknown target kind")
}

func TestRun_PrintsMatchingEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	t.Setenv("REDIS_ADDR", mr.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- run(ctx, "", domain.KindRecord, pw) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(events.DefaultChannel)[events.DefaultChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	pub := events.NewRedisNotifier(mr.Addr(), "", 0, "")
	defer pub.Close()
	require.NoError(t, pub.Publish(ctx, domain.ChangeEvent{
		RequestKind: domain.KindDomainRequest, RequestID: "dq1", TargetKind: domain.KindDomain, TargetID: "d1",
	}))
	require.NoError(t, pub.Publish(ctx, domain.ChangeEvent{
		RequestKind: domain.KindRecordRequest, RequestID: "rr1", TargetKind: domain.KindRecord, TargetID: "r1",
	}))

	var got domain.ChangeEvent
	require.NoError(t, json.NewDecoder(pr).Decode(&got))
	assert.Equal(t, "rr1", got.RequestID)
	assert.Equal(t, domain.KindRecord, got.TargetKind)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

func TestNATSRelay_DeliversAcrossInstances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping nats integration test in short mode")
	}
	require.NoError(t, logger.Init())
	ctx := context.Background()

	container, err := tcnats.Run(ctx, "nats:2.9.22-alpine",
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForLog("Server is ready"),
			wait.ForListeningPort("4222/tcp"),
		)),
	)
	require.NoError(t, err, "start nats container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	pubConn, err := Connect(url, "publisher")
	require.NoError(t, err)
	t.Cleanup(pubConn.Close)
	subConn, err := Connect(url, "relay")
	require.NoError(t, err)
	t.Cleanup(subConn.Close)

	hub := NewHub()
	relay, err := NewRelay(subConn, hub, WithSubject("test.leaderboard"))
	require.NoError(t, err)
	require.NoError(t, relay.Start(ctx))
	t.Cleanup(func() { _ = relay.Stop() })
	require.NoError(t, subConn.Flush())

	session, err := hub.Join(ctx, "e1")
	require.NoError(t, err)

	pub, err := NewNATSPublisher(pubConn, WithSubject("test.leaderboard"))
	require.NoError(t, err)
	assert.Equal(t, "nats", pub.Name())

	entries := []model.LeaderboardEntry{{Rank: 1, SubmissionID: "s1", CombinedScore: 185}}
	for _, v := range []int64{1, 1, 2} {
		require.NoError(t, pub.Broadcast(ctx, "e1", model.LeaderboardChannel("e1"), model.Snapshot{EventID: "e1", Version: v, Entries: entries}))
	}
	require.NoError(t, pubConn.Flush())

	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	first, err := session.Next(wctx)
	require.NoError(t, err)
	second, err := session.Next(wctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, 185.0, second.Entries[0].CombinedScore)
	assert.Equal(t, 0, session.Pending(), "duplicate version must not be delivered")
}

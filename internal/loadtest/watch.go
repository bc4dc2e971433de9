package loadtest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/okian/podium/internal/domain/types"
)

// ErrOutOfOrder is returned when the live feed repeats or rewinds a version.
var ErrOutOfOrder = errors.New("live feed delivered versions out of order")

// Watch follows the live leaderboard for eventID until ctx is cancelled,
// calling fn for every frame. ready is closed once the first frame arrives.
// A clean stop returns nil.
func Watch(ctx context.Context, baseURL, eventID string, ready chan<- struct{}, fn func(types.LeaderboardResponse)) error {
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/events/" + eventID + "/leaderboard/live"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return fmt.Errorf("dial live feed: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial live feed: %w", err)
	}

	// unblock ReadJSON on cancellation
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		if stop() {
			_ = conn.Close()
		}
	}()

	var last int64 = -1
	for {
		var frame types.LeaderboardResponse
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read live feed: %w", err)
		}
		if frame.Version <= last {
			return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, frame.Version, last)
		}
		if last < 0 && ready != nil {
			close(ready)
		}
		last = frame.Version
		fn(frame)
	}
}

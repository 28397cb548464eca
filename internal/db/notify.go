package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/dbpool"
	"github.com/nexalabs/impactgraph/internal/metrics"
)

// listenChannel must match the channel used by the archive insert trigger.
const listenChannel = "impact_snapshots"

// Reconnect backoff bounds.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

const (
	// reloadTimeout bounds a single archive fetch and rebuild.
	reloadTimeout = 30 * time.Second

	// waitSlice caps a single WaitForNotification call so a dead socket is
	// noticed even when no notifications arrive.
	waitSlice = 2 * time.Minute
)

// Peer reload outcomes reported on metrics.PeerReloads.
const (
	reloadSwapped = "swapped"
	reloadKept    = "kept"
	reloadStale   = "stale"
	reloadFailed  = "error"
	reloadDropped = "dropped"
)

// Reloader installs an archived snapshot version when it is newer than the
// one being served.
type Reloader interface {
	Reload(ctx context.Context, orgID string, version uint64) (bool, error)
}

// NotifyBridge listens on the impact_snapshots channel so replicas sharing
// one archive pick up snapshots accepted by their peers.
type NotifyBridge struct {
	log      *logrus.Logger
	pool     *dbpool.Pool
	reloader Reloader

	// seen holds the highest version handled per org. Only the listen
	// goroutine touches it.
	seen map[string]uint64
}

// NewNotifyBridge creates a NotifyBridge wired to the given pool and reloader.
func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, reloader Reloader) *NotifyBridge {
	return &NotifyBridge{
		log:      log,
		pool:     pool,
		reloader: reloader,
		seen:     make(map[string]uint64),
	}
}

// Start checks the archive is reachable and then listens in the background
// until ctx is cancelled, reconnecting with jittered backoff.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.listen(ctx)

	return nil
}

func (b *NotifyBridge) listen(ctx context.Context) {
	backoff := initialBackoff

	for ctx.Err() == nil {
		err := b.listenOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		b.log.WithError(err).WithField("retry_in", backoff.String()).Warn("notify.reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

// listenOnce holds one connection in LISTEN until it fails or ctx ends.
func (b *NotifyBridge) listenOnce(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{listenChannel}.Sanitize()); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", listenChannel).Info("notify.listening")

	for {
		if err := conn.Conn().PgConn().Conn().SetReadDeadline(time.Now().Add(waitSlice)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			return fmt.Errorf("waiting for notification: %w", err)
		}

		b.handleNotification(ctx, n)
	}
}

// notifyPayload is the JSON body emitted by the archive insert trigger.
type notifyPayload struct {
	OrgID   string `json:"org_id"`
	Version uint64 `json:"version"`
}

// handleNotification reloads the snapshot a peer just archived. Versions at
// or below the last one handled for the org are skipped without touching
// the archive.
func (b *NotifyBridge) handleNotification(ctx context.Context, n *pgconn.Notification) {
	var p notifyPayload
	if err := json.Unmarshal([]byte(n.Payload), &p); err != nil || p.OrgID == "" || p.Version == 0 {
		b.log.WithField("pid", n.PID).Warn("notify.dropped")
		metrics.PeerReloads.WithLabelValues(reloadDropped).Inc()
		return
	}

	entry := b.log.WithFields(logrus.Fields{
		"org_id":  p.OrgID,
		"version": p.Version,
		"pid":     n.PID,
	})

	if p.Version <= b.seen[p.OrgID] {
		entry.Debug("notify.stale")
		metrics.PeerReloads.WithLabelValues(reloadStale).Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	swapped, err := b.reloader.Reload(ctx, p.OrgID, p.Version)
	if err != nil {
		entry.WithError(err).Warn("notify.reload_failed")
		metrics.PeerReloads.WithLabelValues(reloadFailed).Inc()
		return
	}

	b.seen[p.OrgID] = p.Version

	result := reloadKept
	if swapped {
		result = reloadSwapped
	}
	metrics.PeerReloads.WithLabelValues(result).Inc()
	entry.WithField("result", result).Debug("notify.handled")
}

// nextBackoff doubles current, caps it at maxBackoff and applies ±25% jitter.
func nextBackoff(current time.Duration) time.Duration {
	next := min(current*2, maxBackoff)

	return time.Duration(float64(next) * (0.75 + rand.Float64()*0.5)) //nolint:gosec // jitter doesn't need crypto rand.
}

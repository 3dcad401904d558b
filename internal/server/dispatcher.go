// Package server exposes a cache.Cache over the carpool line protocol.
//
// Every path into the cache goes through a Dispatcher, which holds the only
// lock. In serve mode the TCP server, the janitor and the admin endpoints
// share one Dispatcher.
package server

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"carpool/internal/cache"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/protocol"
)

const opInvalid = "invalid"

// Dispatcher runs protocol commands against a cache, one at a time.
type Dispatcher struct {
	mu    sync.Mutex
	cache *cache.Cache

	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewDispatcher wraps c. The dispatcher becomes the cache's sole owner.
func NewDispatcher(c *cache.Cache, m *metrics.Metrics, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		cache:   c,
		metrics: m,
		log:     log,
	}
}

// Handle executes one request line and returns the response text. Each
// response line ends with "\n"; commands without output return "".
func (d *Dispatcher) Handle(ctx context.Context, line string) string {
	start := time.Now()

	cmd, err := protocol.Parse(line)
	if err != nil {
		d.log.Debug(ctx, "rejected command", zap.Error(err))
		d.observe(opInvalid, metrics.OutcomeError, start)
		return err.Error() + "\n"
	}
	if cmd.Op == protocol.OpNoop {
		return ""
	}

	d.mu.Lock()
	out, outcome := d.execLocked(cmd)
	stats := d.cache.Stats()
	d.mu.Unlock()

	d.observe(cmd.Op.String(), outcome, start)
	if d.metrics != nil {
		d.metrics.SetUsage(stats.Entries, stats.Bytes)
	}
	d.log.Debug(ctx, "command",
		zap.Stringer("op", cmd.Op),
		zap.String("key", cmd.Key),
		zap.String("outcome", outcome))

	return out
}

func (d *Dispatcher) execLocked(cmd protocol.Command) (string, string) {
	switch cmd.Op {
	case protocol.OpGet:
		v, ok := d.cache.Get(cmd.Key)
		if !ok {
			return "\n", metrics.OutcomeMiss
		}
		return string(v) + "\n", metrics.OutcomeHit
	case protocol.OpSet:
		d.cache.Set(cmd.Key, []byte(cmd.Value))
	case protocol.OpDel:
		d.cache.Delete(cmd.Key)
	case protocol.OpPrune:
		n := d.cache.Prune()
		if d.metrics != nil {
			d.metrics.AddPruned(n)
		}
	case protocol.OpReset:
		d.cache.Empty()
	case protocol.OpCount:
		return strconv.Itoa(d.cache.Count()) + "\n", metrics.OutcomeOK
	case protocol.OpSize:
		return strconv.Itoa(d.cache.Size()) + " bytes\n", metrics.OutcomeOK
	case protocol.OpKeys:
		var b strings.Builder
		for key := range d.cache.Keys() {
			b.WriteString(key)
			b.WriteByte('\n')
		}
		return b.String(), metrics.OutcomeOK
	}
	return "", metrics.OutcomeOK
}

// Prune reclaims expired entries and returns how many were removed.
func (d *Dispatcher) Prune(ctx context.Context) int {
	start := time.Now()

	d.mu.Lock()
	n := d.cache.Prune()
	stats := d.cache.Stats()
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.AddPruned(n)
		d.metrics.SetUsage(stats.Entries, stats.Bytes)
	}
	d.observe(protocol.OpPrune.String(), metrics.OutcomeOK, start)
	d.log.Debug(ctx, "pruned", zap.Int("removed", n), zap.Int("entries", stats.Entries))
	return n
}

// Stats returns a snapshot of the cache counters.
func (d *Dispatcher) Stats() cache.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.Stats()
}

func (d *Dispatcher) observe(op, outcome string, start time.Time) {
	if d.metrics == nil {
		return
	}
	d.metrics.ObserveCommand(op, outcome, time.Since(start).Seconds())
}

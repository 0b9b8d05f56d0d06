package adr

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/adr-core/internal/state"
)

// logWriteTimeout bounds a durable log write.
const logWriteTimeout = 2 * time.Second

// logf appends a controller log line to the memory log, the durable log,
// the unit log file and every notifier.
func (c *Controller) logf(msg string) {
	e := state.Entry{Time: c.now(), Message: msg}
	c.log.Append(e)
	c.logger.Info(msg, "unit", c.name)

	if c.logSink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
		if err := c.logSink.AppendLog(ctx, c.name, e); err != nil {
			c.logger.Warn("durable log write failed", "unit", c.name, "error", err)
		}
		cancel()
	}
	if err := c.logFile.write(e); err != nil {
		c.logger.Warn("log file write failed", "unit", c.name, "error", err)
	}
	for _, n := range c.notifiers {
		n.LogAppended(c.name, e)
	}
}

// RecentLog returns the bounded in-memory log, oldest first.
func (c *Controller) RecentLog() []state.Entry {
	return c.log.Entries()
}

// FullLog returns every entry the durable log holds for this unit, or the
// memory log when no durable log is configured.
func (c *Controller) FullLog(ctx context.Context) ([]state.Entry, error) {
	if c.logSink == nil {
		return c.log.Entries(), nil
	}
	entries, err := c.logSink.ReadLog(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("reading log of %s: %w", c.name, err)
	}
	return entries, nil
}

package adr

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/adr-core/internal/peripheral"
)

// reconcileLoop retries orphaned peripherals on the reconcile interval and
// on demand.
func (c *Controller) reconcileLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.unit.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		case <-c.reconcileNow:
		}
		c.retryOrphans(c.ctx)
	}
}

func (c *Controller) retryOrphans(ctx context.Context) {
	if len(c.peripherals.Orphans()) == 0 {
		return
	}
	if n := c.peripherals.RetryOrphans(ctx); n > 0 {
		c.logf(fmt.Sprintf("Connected %d orphaned peripheral(s).", n))
	}
	c.metrics.Orphans(c.name, len(c.peripherals.Orphans()))
}

// Peripherals returns every declared peripheral.
func (c *Controller) Peripherals() []peripheral.Declaration {
	return c.peripherals.Known()
}

// ConnectedPeripherals returns the bound peripherals.
func (c *Controller) ConnectedPeripherals() []peripheral.Binding {
	return c.peripherals.Connected()
}

// OrphanedPeripherals returns the declared peripherals that are not bound.
func (c *Controller) OrphanedPeripherals() []peripheral.Declaration {
	return c.peripherals.Orphans()
}

// RefreshPeripherals re-reads the declared peripherals and reconnects all.
func (c *Controller) RefreshPeripherals(ctx context.Context) error {
	if err := c.peripherals.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing peripherals of %s: %w", c.name, err)
	}
	c.metrics.Orphans(c.name, len(c.peripherals.Orphans()))
	c.logf("Peripherals refreshed.")
	return nil
}

// ConnectPeripheral attempts to bind one declared peripheral and reports
// whether it is connected afterwards.
func (c *Controller) ConnectPeripheral(ctx context.Context, name string) (bool, error) {
	ok, err := c.peripherals.Attempt(ctx, name)
	if err != nil {
		return false, err
	}
	c.metrics.Orphans(c.name, len(c.peripherals.Orphans()))
	return ok, nil
}

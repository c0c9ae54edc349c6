package posclient

import (
	"context"
	"time"

	"restoran-pos/internal/storage"
)

const DefaultPollInterval = 5 * time.Second

// Poller refreshes the kitchen feed on a fixed interval.
type Poller struct {
	Client   *Client
	Interval time.Duration
	OnUpdate func([]storage.KitchenOrder)
	OnError  func(error)
}

// Run fetches the feed right away and then once per interval until ctx is
// cancelled. Fetch errors go to OnError and do not stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	feed, err := p.Client.KitchenOrders(ctx)
	if err != nil {
		if ctx.Err() == nil && p.OnError != nil {
			p.OnError(err)
		}
		return
	}
	if p.OnUpdate != nil {
		p.OnUpdate(feed)
	}
}

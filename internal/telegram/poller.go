package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Poller is the long-poll delivery loop, used when no webhook URL is
// configured.
type Poller struct {
	Client     *Client
	Dispatcher *Dispatcher
	Log        *slog.Logger

	// PollTimeout is the getUpdates long-poll window in seconds.
	PollTimeout int
}

// Run polls until the context is cancelled. Each update is handled in its
// own goroutine so one slow chat does not block the rest.
func (p *Poller) Run(ctx context.Context) {
	timeout := p.PollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.Client.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.Log.Warn("getUpdates failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			go p.Dispatcher.HandleUpdate(ctx, upd)
		}
	}
}

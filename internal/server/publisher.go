package server

import (
	"log/slog"
	"sync"

	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/search"
)

// Publisher mirrors the search component onto the feeds. A result is rendered
// once when it is committed (and again after holiday enrichment, which commits
// a new one); returning to idle withdraws it. Other phases leave the feeds alone.
type Publisher struct {
	srv *FeedServer

	mu           sync.Mutex
	published    *search.Result
	hasPublished bool
}

// NewPublisher creates a publisher for srv.
func NewPublisher(srv *FeedServer) *Publisher {
	return &Publisher{srv: srv}
}

// Sync publishes the state of c if its result differs from the last one published.
// The snapshot is taken under the publisher lock so concurrent callers cannot
// publish out of order.
func (p *Publisher) Sync(c *search.Component) {
	if p == nil || p.srv == nil || c == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	st := c.State()
	var r *search.Result
	switch {
	case st.Outcome.HasResults():
		r = st.Outcome.Result
	case st.Phase() != search.PhaseIdle:
		return
	}
	if p.hasPublished && r == p.published {
		return
	}
	p.published, p.hasPublished = r, true

	if r == nil {
		_ = p.srv.Publish(nil, nil)
		return
	}
	if err := p.srv.Publish(r.Identity, r.Calendar); err != nil {
		slog.Error(config.ErrICalEncode,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
	}
}

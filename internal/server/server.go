package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
)

// FeedRecorder counts served downloads. *metrics.Recorder satisfies it.
type FeedRecorder interface {
	FeedServed(route string)
}

// cacheItem stores a rendered feed and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// feed is one downloadable document, replaced atomically after each lookup.
type feed struct {
	route       string
	contentType string
	cache       atomic.Pointer[cacheItem]
}

// FeedServer exposes the result of the last lookup on localhost: the birth-year
// holiday calendar as iCalendar, the decoded identity as vCard, plus Prometheus metrics.
type FeedServer struct {
	Port string

	calendar feed
	identity feed

	gatherer prometheus.Gatherer
	recorder FeedRecorder
	now      func() time.Time
}

// NewFeedServer creates a server. gatherer and recorder may be nil.
func NewFeedServer(port string, gatherer prometheus.Gatherer, recorder FeedRecorder) *FeedServer {
	s := &FeedServer{
		Port:     port,
		calendar: feed{route: config.RouteCalendar, contentType: config.MimeTextCalendar},
		identity: feed{route: config.RouteIdentity, contentType: config.MimeVCard},
		gatherer: gatherer,
		recorder: recorder,
		now:      time.Now,
	}
	return s
}

// Handler returns the router serving every route.
func (s *FeedServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get(config.RouteCalendar, s.handleFeed(&s.calendar))
	r.Get(config.RouteIdentity, s.handleFeed(&s.identity))
	if s.gatherer != nil {
		r.Method(http.MethodGet, config.RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, 1)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// UpdateCalendar replaces the served iCalendar document.
func (s *FeedServer) UpdateCalendar(data []byte) {
	s.update(&s.calendar, data)
}

// UpdateIdentity replaces the served vCard. nil withdraws it (after a reset).
func (s *FeedServer) UpdateIdentity(data []byte) {
	s.update(&s.identity, data)
}

// Publish renders a lookup result into both feeds. A nil identity (no result)
// serves the stub calendar and withdraws the vCard.
func (s *FeedServer) Publish(identity *engine.IdentityRecord, calendar *engine.CalendarResult) error {
	if identity == nil {
		s.UpdateCalendar([]byte(config.StubVCalendar))
		s.UpdateIdentity(nil)
		return nil
	}

	ics, err := engine.EncodeBirthYearCalendar(identity, calendar, s.now())
	if err != nil {
		return err
	}
	vcf, err := engine.EncodeIdentityCard(identity)
	if err != nil {
		return err
	}
	s.UpdateCalendar(ics)
	s.UpdateIdentity(vcf)
	return nil
}

func (s *FeedServer) update(f *feed, data []byte) {
	if data == nil {
		f.cache.Store(nil)
		return
	}

	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	// Unchanged content keeps its Last-Modified so conditional requests stay valid.
	if prev := f.cache.Load(); prev != nil && prev.etag == etag {
		return
	}

	f.cache.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: s.now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgFeedUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyRoute, f.route,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleFeed serves f with HTTP caching support.
func (s *FeedServer) handleFeed(f *feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item := f.cache.Load()
		if item == nil {
			w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
			http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set(config.HeaderContentType, f.contentType)
		w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
		w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
		w.Header().Set(config.HeaderETag, item.etag)
		w.Header().Set(config.HeaderLastModified, item.lastModified)

		if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
			if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
				if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
					if !serverTime.After(clientTime) {
						w.WriteHeader(http.StatusNotModified)
						return
					}
				}
			}
		}

		if r.Method != http.MethodGet {
			return
		}
		if s.recorder != nil {
			s.recorder.FeedServed(f.route)
		}
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyRoute, f.route,
				config.LogKeyError, err,
			)
		}
	}
}

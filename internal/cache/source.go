package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/logging"
)

// Fetcher retrieves live faction data.
type Fetcher interface {
	SystemFactions(ctx context.Context, systemID int64) (*galaxy.SystemFactions, error)
}

// SourceOptions configures a Source.
type SourceOptions struct {
	// MaxAge is how long a cached entry is served without a fetch. Zero
	// always fetches first.
	MaxAge time.Duration

	// CacheOnly never touches the network.
	CacheOnly bool

	Logger logging.Logger
	Now    func() time.Time
}

// Source serves faction data cache-first with network fallback, and falls
// back to stale cache entries when the network fails.
type Source struct {
	store   Store
	fetcher Fetcher
	opts    SourceOptions
}

// NewSource creates a Source. fetcher may be nil when CacheOnly is set.
func NewSource(store Store, fetcher Fetcher, opts SourceOptions) *Source {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if fetcher == nil {
		opts.CacheOnly = true
	}
	return &Source{store: store, fetcher: fetcher, opts: opts}
}

// SystemFactions returns faction data for sys. When nothing is available
// the error wraps ErrSystemDataUnavailable and the caller should skip sys.
func (s *Source) SystemFactions(ctx context.Context, sys *galaxy.System) (*galaxy.SystemFactions, error) {
	id := sys.ExternalID
	log := s.opts.Logger.With(logging.String("system", sys.Name), logging.Int64("edsm_id", id))

	cached, cacheErr := s.store.Get(id)
	if cacheErr != nil && !errors.Is(cacheErr, ErrNotCached) {
		log.Warn("unreadable cache entry", logging.Err(cacheErr))
		cached = nil
	}

	now := s.opts.Now()
	if cached != nil && (s.opts.CacheOnly || cached.Age(now) < s.opts.MaxAge) {
		return cached.Data, nil
	}
	if s.opts.CacheOnly {
		return nil, &UnavailableError{SystemID: id, Err: cacheErr}
	}

	data, err := s.fetcher.SystemFactions(ctx, id)
	if err == nil && data != nil {
		if perr := s.store.Put(id, data, now); perr != nil {
			log.Warn("could not cache faction data", logging.Err(perr))
		}
		return data, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		err = errors.New("empty response")
	}

	if cached != nil {
		log.Warn("fetch failed, using stale cache",
			logging.Err(err), logging.Duration("age", cached.Age(now)))
		return cached.Data, nil
	}
	return nil, &UnavailableError{SystemID: id, Err: err}
}

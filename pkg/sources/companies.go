package sources

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"earnings-transcripts/pkg/logger"
)

// DefaultNameCacheSize bounds the company-name cache.
const DefaultNameCacheSize = 1024

// NameLookup resolves a ticker to a company name over the network.
type NameLookup interface {
	LookupName(ctx context.Context, ticker string) (string, error)
}

// CompanyResolver resolves a ticker to a display name. It never fails: an
// unknown name resolves to the upper-case ticker.
type CompanyResolver interface {
	ResolveName(ctx context.Context, ticker string) string
}

// CachedResolver caches successful lookups. Entries are written once and never
// updated; when the cache is full new names are still returned but not stored.
type CachedResolver struct {
	lookup NameLookup
	max    int64
	size   atomic.Int64
	names  sync.Map // ticker -> name
}

// NewCachedResolver creates a resolver. lookup may be nil, in which case only
// the ticker fallback is used. maxEntries <= 0 uses DefaultNameCacheSize.
func NewCachedResolver(lookup NameLookup, maxEntries int) *CachedResolver {
	if maxEntries <= 0 {
		maxEntries = DefaultNameCacheSize
	}
	return &CachedResolver{lookup: lookup, max: int64(maxEntries)}
}

// ResolveName implements CompanyResolver
func (r *CachedResolver) ResolveName(ctx context.Context, ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if v, ok := r.names.Load(ticker); ok {
		return v.(string)
	}
	if r.lookup == nil {
		return ticker
	}

	name, err := r.lookup.LookupName(ctx, ticker)
	name = strings.TrimSpace(name)
	if err != nil || name == "" {
		logger.Log.WithField("ticker", ticker).Debugf("CachedResolver: name lookup failed: %v", err)
		return ticker
	}

	// reserve a slot before storing so concurrent writers cannot overshoot max
	for {
		n := r.size.Load()
		if n >= r.max {
			return name
		}
		if r.size.CompareAndSwap(n, n+1) {
			break
		}
	}
	if _, loaded := r.names.LoadOrStore(ticker, name); loaded {
		r.size.Add(-1)
	}
	return name
}

// Len returns the number of cached names.
func (r *CachedResolver) Len() int {
	return int(r.size.Load())
}

package gqlapi

import (
	"context"
	"errors"
	"sync"

	"analyzeit.org/internal/stats"
)

type loadersContextKey struct{}

// loaders batches and caches relation lookups for the lifetime of one
// request. List resolvers prime it with every foreign id they are about to
// expose, collapsing relation resolution to one query per entity type
// instead of one per row.
type loaders struct {
	countries stats.CountryRepository
	viruses   stats.VirusRepository

	mu           sync.Mutex
	countryCache map[int64]*stats.Country
	virusCache   map[int64]*stats.Virus
}

func newLoaders(repos stats.Repositories) *loaders {
	return &loaders{
		countries:    repos.Countries,
		viruses:      repos.Viruses,
		countryCache: make(map[int64]*stats.Country),
		virusCache:   make(map[int64]*stats.Virus),
	}
}

func contextWithLoaders(ctx context.Context, l *loaders) context.Context {
	return context.WithValue(ctx, loadersContextKey{}, l)
}

func loadersFromContext(ctx context.Context) (*loaders, bool) {
	l, ok := ctx.Value(loadersContextKey{}).(*loaders)
	return l, ok
}

// PrimeStats batch-loads the countries and viruses referenced by the given
// statistics so their relation resolvers become cache hits.
func (l *loaders) PrimeStats(ctx context.Context, list []*stats.DailyStatistic) error {
	var countryIDs, virusIDs []int64
	seenCountry := map[int64]bool{}
	seenVirus := map[int64]bool{}
	l.mu.Lock()
	for _, s := range list {
		if _, ok := l.countryCache[s.CountryID]; !ok && !seenCountry[s.CountryID] {
			seenCountry[s.CountryID] = true
			countryIDs = append(countryIDs, s.CountryID)
		}
		if _, ok := l.virusCache[s.VirusID]; !ok && !seenVirus[s.VirusID] {
			seenVirus[s.VirusID] = true
			virusIDs = append(virusIDs, s.VirusID)
		}
	}
	l.mu.Unlock()

	if len(countryIDs) > 0 {
		countries, err := l.countries.GetMany(ctx, countryIDs)
		if err != nil {
			return err
		}
		l.mu.Lock()
		for _, c := range countries {
			l.countryCache[c.ID] = c
		}
		// Ids GetMany did not return are dangling; cache the miss.
		for _, id := range countryIDs {
			if _, ok := l.countryCache[id]; !ok {
				l.countryCache[id] = nil
			}
		}
		l.mu.Unlock()
	}
	if len(virusIDs) > 0 {
		viruses, err := l.viruses.GetMany(ctx, virusIDs)
		if err != nil {
			return err
		}
		l.mu.Lock()
		for _, v := range viruses {
			l.virusCache[v.ID] = v
		}
		for _, id := range virusIDs {
			if _, ok := l.virusCache[id]; !ok {
				l.virusCache[id] = nil
			}
		}
		l.mu.Unlock()
	}
	return nil
}

// Country resolves one country, from cache when primed. A dangling foreign
// id resolves to nil rather than an error.
func (l *loaders) Country(ctx context.Context, id int64) (*stats.Country, error) {
	l.mu.Lock()
	c, cached := l.countryCache[id]
	l.mu.Unlock()
	if cached {
		return c, nil
	}
	c, err := l.countries.Get(ctx, id)
	if err != nil {
		if errors.Is(err, stats.ErrNotFound) {
			c = nil
		} else {
			return nil, err
		}
	}
	l.mu.Lock()
	l.countryCache[id] = c
	l.mu.Unlock()
	return c, nil
}

// Virus resolves one virus with the same semantics as Country.
func (l *loaders) Virus(ctx context.Context, id int64) (*stats.Virus, error) {
	l.mu.Lock()
	v, cached := l.virusCache[id]
	l.mu.Unlock()
	if cached {
		return v, nil
	}
	v, err := l.viruses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, stats.ErrNotFound) {
			v = nil
		} else {
			return nil, err
		}
	}
	l.mu.Lock()
	l.virusCache[id] = v
	l.mu.Unlock()
	return v, nil
}

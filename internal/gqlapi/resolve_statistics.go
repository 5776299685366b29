package gqlapi

import (
	"errors"

	"github.com/graphql-go/graphql"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/obs"
	"analyzeit.org/internal/stats"
)

// Statistic resolvers. All of them sit behind the authentication gate.

func (a *API) resolveStatistic(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_stat")
	if err != nil {
		return nil, err
	}
	stat, err := a.repos.Statistics.Get(p.Context, id)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.primeRelations(p, []*stats.DailyStatistic{stat})
	return stat, nil
}

func (a *API) resolveStatisticsByCountry(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_pays")
	if err != nil {
		return nil, err
	}
	list, err := a.repos.Statistics.ListByCountry(p.Context, id)
	if err != nil {
		return nil, err
	}
	a.primeRelations(p, list)
	return list, nil
}

func (a *API) resolveStatisticsByVirus(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_virus")
	if err != nil {
		return nil, err
	}
	list, err := a.repos.Statistics.ListByVirus(p.Context, id)
	if err != nil {
		return nil, err
	}
	a.primeRelations(p, list)
	return list, nil
}

func (a *API) resolveStatisticsByDate(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	date, err := argDate(p, "date")
	if err != nil {
		return nil, err
	}
	list, err := a.repos.Statistics.ListByDate(p.Context, date)
	if err != nil {
		return nil, err
	}
	a.primeRelations(p, list)
	return list, nil
}

func (a *API) resolveAllStatistics(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	list, err := a.repos.Statistics.List(p.Context)
	if err != nil {
		return nil, err
	}
	a.primeRelations(p, list)
	return list, nil
}

func (a *API) resolveCreateStatistic(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	countryID, err := argID(p, "id_pays")
	if err != nil {
		return nil, err
	}
	virusID, err := argID(p, "id_virus")
	if err != nil {
		return nil, err
	}
	date, err := argDate(p, "date")
	if err != nil {
		return nil, err
	}
	return a.repos.Statistics.Create(p.Context, &stats.DailyStatistic{
		CountryID:     countryID,
		VirusID:       virusID,
		Date:          date,
		NouveauxCas:   argIntOrZero(p, "nouveaux_cas"),
		NouveauxDeces: argIntOrZero(p, "nouveaux_deces"),
		TotalCas:      argIntOrZero(p, "total_cas"),
		TotalDeces:    argIntOrZero(p, "total_deces"),
	})
}

func (a *API) resolveUpdateStatistic(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_stat")
	if err != nil {
		return nil, err
	}
	patch := stats.StatisticPatch{
		NouveauxCas:   argOptionalInt(p, "nouveaux_cas"),
		NouveauxDeces: argOptionalInt(p, "nouveaux_deces"),
		TotalCas:      argOptionalInt(p, "total_cas"),
		TotalDeces:    argOptionalInt(p, "total_deces"),
	}
	stat, err := a.repos.Statistics.Update(p.Context, id, patch)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stat, nil
}

func (a *API) resolveDeleteStatistic(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_stat")
	if err != nil {
		return nil, err
	}
	return a.deleteReported("statistique", func() error {
		return a.repos.Statistics.Delete(p.Context, id)
	})
}

// Relation resolvers on nested fields.

func (a *API) resolveCountryStatistics(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	country, ok := p.Source.(*stats.Country)
	if !ok {
		return nil, nil
	}
	return a.repos.Statistics.ListByCountry(p.Context, country.ID)
}

func (a *API) resolveVirusStatistics(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	virus, ok := p.Source.(*stats.Virus)
	if !ok {
		return nil, nil
	}
	return a.repos.Statistics.ListByVirus(p.Context, virus.ID)
}

func (a *API) resolveSeasonStatistics(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	season, ok := p.Source.(*stats.Season)
	if !ok {
		return nil, nil
	}
	list, err := a.repos.Statistics.ListBySeason(p.Context, season.ID)
	if err != nil {
		return nil, err
	}
	a.primeRelations(p, list)
	return list, nil
}

func (a *API) resolveStatisticCountry(p graphql.ResolveParams) (interface{}, error) {
	stat, ok := p.Source.(*stats.DailyStatistic)
	if !ok {
		return nil, nil
	}
	if l, ok := loadersFromContext(p.Context); ok {
		return l.Country(p.Context, stat.CountryID)
	}
	country, err := a.repos.Countries.Get(p.Context, stat.CountryID)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	return country, err
}

func (a *API) resolveStatisticVirus(p graphql.ResolveParams) (interface{}, error) {
	stat, ok := p.Source.(*stats.DailyStatistic)
	if !ok {
		return nil, nil
	}
	if l, ok := loadersFromContext(p.Context); ok {
		return l.Virus(p.Context, stat.VirusID)
	}
	virus, err := a.repos.Viruses.Get(p.Context, stat.VirusID)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	return virus, err
}

// primeRelations warms the per-request loader caches for a result set.
// Priming is best effort; a failure is logged and does not fail the
// operation that fetched the rows.
func (a *API) primeRelations(p graphql.ResolveParams, list []*stats.DailyStatistic) {
	l, ok := loadersFromContext(p.Context)
	if !ok || len(list) == 0 {
		return
	}
	if err := l.PrimeStats(p.Context, list); err != nil {
		obs.Warn("relation preload failed", map[string]any{"cause": err.Error()})
	}
}

package gqlapi

import (
	"errors"

	"github.com/graphql-go/graphql"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/obs"
	"analyzeit.org/internal/stats"
)

// Reference data resolvers. Listings are public; the by-id country lookup
// and every mutation require an authenticated caller.

func (a *API) resolveCountry(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_pays")
	if err != nil {
		return nil, err
	}
	country, err := a.repos.Countries.Get(p.Context, id)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return country, nil
}

func (a *API) resolveAllCountries(p graphql.ResolveParams) (interface{}, error) {
	return a.repos.Countries.List(p.Context)
}

func (a *API) resolveVirus(p graphql.ResolveParams) (interface{}, error) {
	id, err := argID(p, "id_virus")
	if err != nil {
		return nil, err
	}
	virus, err := a.repos.Viruses.Get(p.Context, id)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return virus, nil
}

func (a *API) resolveAllViruses(p graphql.ResolveParams) (interface{}, error) {
	return a.repos.Viruses.List(p.Context)
}

func (a *API) resolveSeason(p graphql.ResolveParams) (interface{}, error) {
	id, err := argID(p, "id_saison")
	if err != nil {
		return nil, err
	}
	season, err := a.repos.Seasons.Get(p.Context, id)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return season, nil
}

func (a *API) resolveAllSeasons(p graphql.ResolveParams) (interface{}, error) {
	return a.repos.Seasons.List(p.Context)
}

func (a *API) resolveCreateCountry(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	name := argString(p, "nom_pays")
	if name == "" {
		return nil, newValidationError("nom_pays must not be empty")
	}
	return a.repos.Countries.Create(p.Context, name)
}

func (a *API) resolveUpdateCountry(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_pays")
	if err != nil {
		return nil, err
	}
	name := argString(p, "nom_pays")
	if name == "" {
		return nil, newValidationError("nom_pays must not be empty")
	}
	country, err := a.repos.Countries.Update(p.Context, id, name)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return country, nil
}

func (a *API) resolveDeleteCountry(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_pays")
	if err != nil {
		return nil, err
	}
	return a.deleteReported("pays", func() error {
		return a.repos.Countries.Delete(p.Context, id)
	})
}

func (a *API) resolveCreateVirus(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	name := argString(p, "nom_virus")
	if name == "" {
		return nil, newValidationError("nom_virus must not be empty")
	}
	return a.repos.Viruses.Create(p.Context, name)
}

func (a *API) resolveUpdateVirus(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_virus")
	if err != nil {
		return nil, err
	}
	name := argString(p, "nom_virus")
	if name == "" {
		return nil, newValidationError("nom_virus must not be empty")
	}
	virus, err := a.repos.Viruses.Update(p.Context, id, name)
	if errors.Is(err, stats.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return virus, nil
}

func (a *API) resolveDeleteVirus(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	id, err := argID(p, "id_virus")
	if err != nil {
		return nil, err
	}
	return a.deleteReported("virus", func() error {
		return a.repos.Viruses.Delete(p.Context, id)
	})
}

// deleteReported swallows repository failures and reports deletion as a
// boolean: false covers both a missing row and a storage fault.
func (a *API) deleteReported(entity string, del func() error) (interface{}, error) {
	if err := del(); err != nil {
		if !errors.Is(err, stats.ErrNotFound) {
			obs.Error("delete failed", map[string]any{
				"entity": entity,
				"cause":  err.Error(),
			})
		}
		return false, nil
	}
	return true, nil
}

package gqlapi

import (
	"github.com/graphql-go/graphql"

	"analyzeit.org/internal/auth"
)

func (a *API) resolvePredictPandemic(p graphql.ResolveParams) (interface{}, error) {
	if _, err := auth.RequireAuthenticated(p.Context); err != nil {
		return nil, err
	}
	country := argString(p, "country")
	if country == "" {
		return nil, newValidationError("country must not be empty")
	}
	virus := argString(p, "virus")
	if virus == "" {
		return nil, newValidationError("virus must not be empty")
	}
	dateStart, err := argDate(p, "date_start")
	if err != nil {
		return nil, err
	}
	dateEnd, err := argDate(p, "date_end")
	if err != nil {
		return nil, err
	}
	if dateEnd.Before(dateStart) {
		return nil, newValidationError("date_end must not precede date_start")
	}
	return a.predictor.Predict(p.Context, country, virus,
		dateStart.Format(dateLayout), dateEnd.Format(dateLayout))
}

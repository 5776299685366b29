package gqlapi

import (
	"github.com/graphql-go/graphql"

	"analyzeit.org/internal/auth"
)

func (a *API) resolveLogin(p graphql.ResolveParams) (interface{}, error) {
	session, err := a.auth.Login(p.Context, argString(p, "email"), argString(p, "password"))
	if err != nil {
		return nil, err
	}
	return sessionPayload(session), nil
}

func (a *API) resolveRegister(p graphql.ResolveParams) (interface{}, error) {
	session, err := a.auth.Register(p.Context,
		argString(p, "email"),
		argString(p, "password"),
		argString(p, "nom"),
		argString(p, "prenom"),
	)
	if err != nil {
		return nil, err
	}
	return sessionPayload(session), nil
}

func (a *API) resolveMe(p graphql.ResolveParams) (interface{}, error) {
	user, err := auth.RequireAuthenticated(p.Context)
	if err != nil {
		return nil, err
	}
	return user.PublicView(), nil
}

func sessionPayload(s *auth.Session) map[string]interface{} {
	return map[string]interface{}{
		"token": s.Token,
		"user":  s.User,
	}
}

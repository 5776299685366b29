package gqlapi

import (
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/obs"
	"analyzeit.org/internal/stats"
)

// jsonScalar passes arbitrary JSON values through unchanged; the prediction
// document is served under it.
var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value.",
	Serialize:   func(value interface{}) interface{} { return value },
	ParseValue:  func(value interface{}) interface{} { return value },
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return valueAST.GetValue()
	},
})

// instrument wraps a top-level resolver with operation metrics and error
// translation. Field-level failures stay per-field: graphql-go reports them
// in the errors array while sibling fields still resolve.
func (a *API) instrument(operation string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		value, err := fn(p)
		if err != nil {
			obs.ObserveGraphQLOperation(operation, "error")
			return nil, mapError(operation, err)
		}
		obs.ObserveGraphQLOperation(operation, "ok")
		return value, nil
	}
}

func (a *API) buildSchema() (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id_user": &graphql.Field{Type: graphql.ID},
			"email":   &graphql.Field{Type: graphql.String},
			"nom":     &graphql.Field{Type: graphql.String},
			"prenom":  &graphql.Field{Type: graphql.String},
			"role":    &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					u, ok := p.Source.(*auth.PublicUser)
					if !ok {
						return nil, nil
					}
					return u.CreatedAt.UTC().Format(time.RFC3339), nil
				},
			},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: userType},
		},
	})

	statisticType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StatistiquesJournalieres",
		Fields: graphql.Fields{
			"id_stat":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"id_pays":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"id_virus": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"id_saison": &graphql.Field{
				Type:    graphql.ID,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return int64PtrValue(s.SeasonID) }),
			},
			"date": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return s.Date.Format(dateLayout) }),
			},
			"nouveaux_cas":   &graphql.Field{Type: graphql.Int},
			"nouveaux_deces": &graphql.Field{Type: graphql.Int},
			"total_cas":      &graphql.Field{Type: graphql.Int},
			"total_deces":    &graphql.Field{Type: graphql.Int},
			"croissance_cas": &graphql.Field{
				Type:    graphql.Float,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return floatPtrValue(s.CroissanceCas) }),
			},
			"taux_mortalite": &graphql.Field{
				Type:    graphql.Float,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return floatPtrValue(s.TauxMortalite) }),
			},
			"taux_infection": &graphql.Field{
				Type:    graphql.Float,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return floatPtrValue(s.TauxInfection) }),
			},
			"taux_mortalite_population": &graphql.Field{
				Type:    graphql.Float,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return floatPtrValue(s.TauxMortalitePopulation) }),
			},
			"taux_infection_vs_global": &graphql.Field{
				Type:    graphql.Float,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return floatPtrValue(s.TauxInfectionVsGlobal) }),
			},
			"taux_mortalite_pop_vs_global": &graphql.Field{
				Type:    graphql.Float,
				Resolve: resolveStatField(func(s *stats.DailyStatistic) interface{} { return floatPtrValue(s.TauxMortalitePopVsGlobal) }),
			},
		},
	})

	countryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pays",
		Fields: graphql.Fields{
			"id_pays":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"nom_pays": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	countryType.AddFieldConfig("statistiques_journalieres", &graphql.Field{
		Type:    graphql.NewList(statisticType),
		Resolve: a.instrument("Pays.statistiques_journalieres", a.resolveCountryStatistics),
	})

	virusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Virus",
		Fields: graphql.Fields{
			"id_virus":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"nom_virus": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	virusType.AddFieldConfig("statistiques_journalieres", &graphql.Field{
		Type:    graphql.NewList(statisticType),
		Resolve: a.instrument("Virus.statistiques_journalieres", a.resolveVirusStatistics),
	})

	seasonType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Saisons",
		Fields: graphql.Fields{
			"id_saison":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"nom_saison": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	seasonType.AddFieldConfig("statistiques", &graphql.Field{
		Type:    graphql.NewList(statisticType),
		Resolve: a.instrument("Saisons.statistiques", a.resolveSeasonStatistics),
	})

	// Relations on statistics resolve through the per-request loaders.
	statisticType.AddFieldConfig("pays", &graphql.Field{
		Type:    countryType,
		Resolve: a.instrument("StatistiquesJournalieres.pays", a.resolveStatisticCountry),
	})
	statisticType.AddFieldConfig("virus", &graphql.Field{
		Type:    virusType,
		Resolve: a.instrument("StatistiquesJournalieres.virus", a.resolveStatisticVirus),
	})

	idArg := func(name string) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			name: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"predictPandemic": &graphql.Field{
				Type: jsonScalar,
				Args: graphql.FieldConfigArgument{
					"country":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"virus":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date_start": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date_end":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("predictPandemic", a.resolvePredictPandemic),
			},

			"pays": &graphql.Field{
				Type:    countryType,
				Args:    idArg("id_pays"),
				Resolve: a.instrument("pays", a.resolveCountry),
			},
			"allPays": &graphql.Field{
				Type:    graphql.NewList(countryType),
				Resolve: a.instrument("allPays", a.resolveAllCountries),
			},

			"virus": &graphql.Field{
				Type:    virusType,
				Args:    idArg("id_virus"),
				Resolve: a.instrument("virus", a.resolveVirus),
			},
			"allVirus": &graphql.Field{
				Type:    graphql.NewList(virusType),
				Resolve: a.instrument("allVirus", a.resolveAllViruses),
			},

			"saison": &graphql.Field{
				Type:    seasonType,
				Args:    idArg("id_saison"),
				Resolve: a.instrument("saison", a.resolveSeason),
			},
			"allSaisons": &graphql.Field{
				Type:    graphql.NewList(seasonType),
				Resolve: a.instrument("allSaisons", a.resolveAllSeasons),
			},

			"statistique": &graphql.Field{
				Type:    statisticType,
				Args:    idArg("id_stat"),
				Resolve: a.instrument("statistique", a.resolveStatistic),
			},
			"statistiquesByPays": &graphql.Field{
				Type:    graphql.NewList(statisticType),
				Args:    idArg("id_pays"),
				Resolve: a.instrument("statistiquesByPays", a.resolveStatisticsByCountry),
			},
			"statistiquesByVirus": &graphql.Field{
				Type:    graphql.NewList(statisticType),
				Args:    idArg("id_virus"),
				Resolve: a.instrument("statistiquesByVirus", a.resolveStatisticsByVirus),
			},
			"statistiquesByDate": &graphql.Field{
				Type: graphql.NewList(statisticType),
				Args: graphql.FieldConfigArgument{
					"date": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("statistiquesByDate", a.resolveStatisticsByDate),
			},
			"allStatistiques": &graphql.Field{
				Type:    graphql.NewList(statisticType),
				Resolve: a.instrument("allStatistiques", a.resolveAllStatistics),
			},

			"me": &graphql.Field{
				Type:    userType,
				Resolve: a.instrument("me", a.resolveMe),
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("login", a.resolveLogin),
			},
			"register": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"nom":      &graphql.ArgumentConfig{Type: graphql.String},
					"prenom":   &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: a.instrument("register", a.resolveRegister),
			},

			"createPays": &graphql.Field{
				Type: countryType,
				Args: graphql.FieldConfigArgument{
					"nom_pays": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("createPays", a.resolveCreateCountry),
			},
			"updatePays": &graphql.Field{
				Type: countryType,
				Args: graphql.FieldConfigArgument{
					"id_pays":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"nom_pays": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("updatePays", a.resolveUpdateCountry),
			},
			"deletePays": &graphql.Field{
				Type:    graphql.Boolean,
				Args:    idArg("id_pays"),
				Resolve: a.instrument("deletePays", a.resolveDeleteCountry),
			},

			"createVirus": &graphql.Field{
				Type: virusType,
				Args: graphql.FieldConfigArgument{
					"nom_virus": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("createVirus", a.resolveCreateVirus),
			},
			"updateVirus": &graphql.Field{
				Type: virusType,
				Args: graphql.FieldConfigArgument{
					"id_virus":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"nom_virus": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: a.instrument("updateVirus", a.resolveUpdateVirus),
			},
			"deleteVirus": &graphql.Field{
				Type:    graphql.Boolean,
				Args:    idArg("id_virus"),
				Resolve: a.instrument("deleteVirus", a.resolveDeleteVirus),
			},

			"createStatistique": &graphql.Field{
				Type: statisticType,
				Args: graphql.FieldConfigArgument{
					"id_pays":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"id_virus":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"date":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"nouveaux_cas":   &graphql.ArgumentConfig{Type: graphql.Int},
					"nouveaux_deces": &graphql.ArgumentConfig{Type: graphql.Int},
					"total_cas":      &graphql.ArgumentConfig{Type: graphql.Int},
					"total_deces":    &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: a.instrument("createStatistique", a.resolveCreateStatistic),
			},
			"updateStatistique": &graphql.Field{
				Type: statisticType,
				Args: graphql.FieldConfigArgument{
					"id_stat":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"nouveaux_cas":   &graphql.ArgumentConfig{Type: graphql.Int},
					"nouveaux_deces": &graphql.ArgumentConfig{Type: graphql.Int},
					"total_cas":      &graphql.ArgumentConfig{Type: graphql.Int},
					"total_deces":    &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: a.instrument("updateStatistique", a.resolveUpdateStatistic),
			},
			"deleteStatistique": &graphql.Field{
				Type:    graphql.Boolean,
				Args:    idArg("id_stat"),
				Resolve: a.instrument("deleteStatistique", a.resolveDeleteStatistic),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// resolveStatField adapts a typed field accessor to graphql-go's signature.
func resolveStatField(get func(*stats.DailyStatistic) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		s, ok := p.Source.(*stats.DailyStatistic)
		if !ok {
			return nil, nil
		}
		return get(s), nil
	}
}

func floatPtrValue(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func int64PtrValue(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

// Package stats holds the epidemiological reference and observation entities
// and the repository contracts their resolvers depend on.
package stats

import "time"

// Country is a reference entity with a unique name.
type Country struct {
	ID   int64  `json:"id_pays"`
	Name string `json:"nom_pays"`
}

// Virus is a reference entity with a unique name.
type Virus struct {
	ID   int64  `json:"id_virus"`
	Name string `json:"nom_virus"`
}

// Season is a reference entity optionally attached to observations.
type Season struct {
	ID   int64  `json:"id_saison"`
	Name string `json:"nom_saison"`
}

// DailyStatistic is one country/virus/date observation with case and death
// counts plus optional derived rates loaded at import time. The (country,
// virus, date) triple conceptually identifies a reporting period but
// duplicates are tolerated; see DESIGN.md.
type DailyStatistic struct {
	ID        int64     `json:"id_stat"`
	CountryID int64     `json:"id_pays"`
	VirusID   int64     `json:"id_virus"`
	SeasonID  *int64    `json:"id_saison"`
	Date      time.Time `json:"date"`

	NouveauxCas   int `json:"nouveaux_cas"`
	NouveauxDeces int `json:"nouveaux_deces"`
	TotalCas      int `json:"total_cas"`
	TotalDeces    int `json:"total_deces"`

	CroissanceCas            *float64 `json:"croissance_cas"`
	TauxMortalite            *float64 `json:"taux_mortalite"`
	TauxInfection            *float64 `json:"taux_infection"`
	TauxMortalitePopulation  *float64 `json:"taux_mortalite_population"`
	TauxInfectionVsGlobal    *float64 `json:"taux_infection_vs_global"`
	TauxMortalitePopVsGlobal *float64 `json:"taux_mortalite_pop_vs_global"`
}

// StatisticPatch carries a partial update: nil fields keep their stored
// values, set fields overwrite them.
type StatisticPatch struct {
	NouveauxCas   *int
	NouveauxDeces *int
	TotalCas      *int
	TotalDeces    *int
}

// Empty reports whether the patch changes nothing.
func (p StatisticPatch) Empty() bool {
	return p.NouveauxCas == nil && p.NouveauxDeces == nil && p.TotalCas == nil && p.TotalDeces == nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"analyzeit.org/internal/stats"
)

var _ stats.StatisticRepository = (*statisticRepo)(nil)

type statisticRepo struct{ db *sql.DB }

const statisticColumns = `id_stat, id_pays, id_virus, id_saison, date,
	nouveaux_cas, nouveaux_deces, total_cas, total_deces,
	croissance_cas, taux_mortalite, taux_infection,
	taux_mortalite_population, taux_infection_vs_global, taux_mortalite_pop_vs_global`

func (r *statisticRepo) Create(ctx context.Context, s *stats.DailyStatistic) (*stats.DailyStatistic, error) {
	if s.CountryID <= 0 || s.VirusID <= 0 {
		return nil, stats.ErrInvalidInput
	}
	out := *s
	err := r.db.QueryRowContext(ctx, `
		insert into statistiques_journalieres(id_pays, id_virus, id_saison, date,
			nouveaux_cas, nouveaux_deces, total_cas, total_deces)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		returning id_stat
	`, s.CountryID, s.VirusID, s.SeasonID, s.Date,
		s.NouveauxCas, s.NouveauxDeces, s.TotalCas, s.TotalDeces).Scan(&out.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *statisticRepo) Get(ctx context.Context, id int64) (*stats.DailyStatistic, error) {
	row := r.db.QueryRowContext(ctx,
		`select `+statisticColumns+` from statistiques_journalieres where id_stat=$1`, id)
	s, err := scanStatistic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stats.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *statisticRepo) List(ctx context.Context) ([]*stats.DailyStatistic, error) {
	return r.queryMany(ctx,
		`select `+statisticColumns+` from statistiques_journalieres order by date, id_stat`)
}

func (r *statisticRepo) ListByCountry(ctx context.Context, countryID int64) ([]*stats.DailyStatistic, error) {
	return r.queryMany(ctx,
		`select `+statisticColumns+` from statistiques_journalieres where id_pays=$1 order by date, id_stat`,
		countryID)
}

func (r *statisticRepo) ListByVirus(ctx context.Context, virusID int64) ([]*stats.DailyStatistic, error) {
	return r.queryMany(ctx,
		`select `+statisticColumns+` from statistiques_journalieres where id_virus=$1 order by date, id_stat`,
		virusID)
}

func (r *statisticRepo) ListBySeason(ctx context.Context, seasonID int64) ([]*stats.DailyStatistic, error) {
	return r.queryMany(ctx,
		`select `+statisticColumns+` from statistiques_journalieres where id_saison=$1 order by date, id_stat`,
		seasonID)
}

func (r *statisticRepo) ListByDate(ctx context.Context, date time.Time) ([]*stats.DailyStatistic, error) {
	return r.queryMany(ctx,
		`select `+statisticColumns+` from statistiques_journalieres where date=$1 order by id_stat`,
		date)
}

// Update overwrites only the patched columns; coalesce keeps the stored
// value wherever the patch carries NULL.
func (r *statisticRepo) Update(ctx context.Context, id int64, patch stats.StatisticPatch) (*stats.DailyStatistic, error) {
	row := r.db.QueryRowContext(ctx, `
		update statistiques_journalieres set
			nouveaux_cas   = coalesce($2, nouveaux_cas),
			nouveaux_deces = coalesce($3, nouveaux_deces),
			total_cas      = coalesce($4, total_cas),
			total_deces    = coalesce($5, total_deces)
		where id_stat=$1
		returning `+statisticColumns,
		id, patch.NouveauxCas, patch.NouveauxDeces, patch.TotalCas, patch.TotalDeces)
	s, err := scanStatistic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stats.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *statisticRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`delete from statistiques_journalieres where id_stat=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return stats.ErrNotFound
	}
	return nil
}

func (r *statisticRepo) queryMany(ctx context.Context, query string, args ...any) ([]*stats.DailyStatistic, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*stats.DailyStatistic
	for rows.Next() {
		s, err := scanStatistic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatistic(row rowScanner) (*stats.DailyStatistic, error) {
	var s stats.DailyStatistic
	err := row.Scan(
		&s.ID, &s.CountryID, &s.VirusID, &s.SeasonID, &s.Date,
		&s.NouveauxCas, &s.NouveauxDeces, &s.TotalCas, &s.TotalDeces,
		&s.CroissanceCas, &s.TauxMortalite, &s.TauxInfection,
		&s.TauxMortalitePopulation, &s.TauxInfectionVsGlobal, &s.TauxMortalitePopVsGlobal,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"analyzeit.org/internal/stats"
)

var (
	_ stats.CountryRepository = (*countryRepo)(nil)
	_ stats.VirusRepository   = (*virusRepo)(nil)
	_ stats.SeasonRepository  = (*seasonRepo)(nil)
)

// countryRepo and virusRepo are structurally identical; both delegate to
// refTable keyed by their column names.
type countryRepo struct{ db *sql.DB }

func (r *countryRepo) table() refTable {
	return refTable{db: r.db, name: "pays", idCol: "id_pays", nameCol: "nom_pays"}
}

func (r *countryRepo) Create(ctx context.Context, name string) (*stats.Country, error) {
	id, err := r.table().create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &stats.Country{ID: id, Name: name}, nil
}

func (r *countryRepo) Get(ctx context.Context, id int64) (*stats.Country, error) {
	id, name, err := r.table().get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stats.Country{ID: id, Name: name}, nil
}

func (r *countryRepo) GetMany(ctx context.Context, ids []int64) ([]*stats.Country, error) {
	rows, err := r.table().getMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*stats.Country, len(rows))
	for i, row := range rows {
		out[i] = &stats.Country{ID: row.id, Name: row.name}
	}
	return out, nil
}

func (r *countryRepo) List(ctx context.Context) ([]*stats.Country, error) {
	rows, err := r.table().list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*stats.Country, len(rows))
	for i, row := range rows {
		out[i] = &stats.Country{ID: row.id, Name: row.name}
	}
	return out, nil
}

func (r *countryRepo) Update(ctx context.Context, id int64, name string) (*stats.Country, error) {
	if err := r.table().update(ctx, id, name); err != nil {
		return nil, err
	}
	return &stats.Country{ID: id, Name: name}, nil
}

func (r *countryRepo) Delete(ctx context.Context, id int64) error {
	return r.table().delete(ctx, id)
}

type virusRepo struct{ db *sql.DB }

func (r *virusRepo) table() refTable {
	return refTable{db: r.db, name: "virus", idCol: "id_virus", nameCol: "nom_virus"}
}

func (r *virusRepo) Create(ctx context.Context, name string) (*stats.Virus, error) {
	id, err := r.table().create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &stats.Virus{ID: id, Name: name}, nil
}

func (r *virusRepo) Get(ctx context.Context, id int64) (*stats.Virus, error) {
	id, name, err := r.table().get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stats.Virus{ID: id, Name: name}, nil
}

func (r *virusRepo) GetMany(ctx context.Context, ids []int64) ([]*stats.Virus, error) {
	rows, err := r.table().getMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*stats.Virus, len(rows))
	for i, row := range rows {
		out[i] = &stats.Virus{ID: row.id, Name: row.name}
	}
	return out, nil
}

func (r *virusRepo) List(ctx context.Context) ([]*stats.Virus, error) {
	rows, err := r.table().list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*stats.Virus, len(rows))
	for i, row := range rows {
		out[i] = &stats.Virus{ID: row.id, Name: row.name}
	}
	return out, nil
}

func (r *virusRepo) Update(ctx context.Context, id int64, name string) (*stats.Virus, error) {
	if err := r.table().update(ctx, id, name); err != nil {
		return nil, err
	}
	return &stats.Virus{ID: id, Name: name}, nil
}

func (r *virusRepo) Delete(ctx context.Context, id int64) error {
	return r.table().delete(ctx, id)
}

type seasonRepo struct{ db *sql.DB }

func (r *seasonRepo) Get(ctx context.Context, id int64) (*stats.Season, error) {
	var s stats.Season
	err := r.db.QueryRowContext(ctx,
		`select id_saison, nom_saison from saisons where id_saison=$1`, id).
		Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stats.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *seasonRepo) List(ctx context.Context) ([]*stats.Season, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id_saison, nom_saison from saisons order by id_saison`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*stats.Season
	for rows.Next() {
		var s stats.Season
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// refTable factors the identical SQL for the two name-keyed tables.
type refTable struct {
	db      *sql.DB
	name    string
	idCol   string
	nameCol string
}

type refRow struct {
	id   int64
	name string
}

func (t refTable) create(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`insert into %s(%s) values ($1) returning %s`, t.name, t.nameCol, t.idCol),
		name).Scan(&id)
	return id, err
}

func (t refTable) get(ctx context.Context, id int64) (int64, string, error) {
	var row refRow
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`select %s, %s from %s where %s=$1`, t.idCol, t.nameCol, t.name, t.idCol),
		id).Scan(&row.id, &row.name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", stats.ErrNotFound
	}
	if err != nil {
		return 0, "", err
	}
	return row.id, row.name, nil
}

func (t refTable) getMany(ctx context.Context, ids []int64) ([]refRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`select %s, %s from %s where %s in (%s)`,
		t.idCol, t.nameCol, t.name, t.idCol, placeholders(len(ids)))
	rows, err := t.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []refRow
	for rows.Next() {
		var row refRow
		if err := rows.Scan(&row.id, &row.name); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t refTable) list(ctx context.Context) ([]refRow, error) {
	rows, err := t.db.QueryContext(ctx,
		fmt.Sprintf(`select %s, %s from %s order by %s`, t.idCol, t.nameCol, t.name, t.idCol))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []refRow
	for rows.Next() {
		var row refRow
		if err := rows.Scan(&row.id, &row.name); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t refTable) update(ctx context.Context, id int64, name string) error {
	res, err := t.db.ExecContext(ctx,
		fmt.Sprintf(`update %s set %s=$2 where %s=$1`, t.name, t.nameCol, t.idCol),
		id, name)
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

func (t refTable) delete(ctx context.Context, id int64) error {
	res, err := t.db.ExecContext(ctx,
		fmt.Sprintf(`delete from %s where %s=$1`, t.name, t.idCol), id)
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

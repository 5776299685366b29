package stats

import (
	"context"
	"time"
)

// CountryRepository persists countries. Get reports ErrNotFound for a
// missing id; Delete reports ErrNotFound when nothing was removed.
type CountryRepository interface {
	Create(ctx context.Context, name string) (*Country, error)
	Get(ctx context.Context, id int64) (*Country, error)
	GetMany(ctx context.Context, ids []int64) ([]*Country, error)
	List(ctx context.Context) ([]*Country, error)
	Update(ctx context.Context, id int64, name string) (*Country, error)
	Delete(ctx context.Context, id int64) error
}

// VirusRepository persists viruses with the same conventions.
type VirusRepository interface {
	Create(ctx context.Context, name string) (*Virus, error)
	Get(ctx context.Context, id int64) (*Virus, error)
	GetMany(ctx context.Context, ids []int64) ([]*Virus, error)
	List(ctx context.Context) ([]*Virus, error)
	Update(ctx context.Context, id int64, name string) (*Virus, error)
	Delete(ctx context.Context, id int64) error
}

// SeasonRepository is read-only; seasons arrive via import.
type SeasonRepository interface {
	Get(ctx context.Context, id int64) (*Season, error)
	List(ctx context.Context) ([]*Season, error)
}

// StatisticRepository persists daily observations.
type StatisticRepository interface {
	Create(ctx context.Context, s *DailyStatistic) (*DailyStatistic, error)
	Get(ctx context.Context, id int64) (*DailyStatistic, error)
	List(ctx context.Context) ([]*DailyStatistic, error)
	ListByCountry(ctx context.Context, countryID int64) ([]*DailyStatistic, error)
	ListByVirus(ctx context.Context, virusID int64) ([]*DailyStatistic, error)
	ListBySeason(ctx context.Context, seasonID int64) ([]*DailyStatistic, error)
	ListByDate(ctx context.Context, date time.Time) ([]*DailyStatistic, error)
	// Update applies a partial patch; fields absent from the patch keep
	// their stored values.
	Update(ctx context.Context, id int64, patch StatisticPatch) (*DailyStatistic, error)
	Delete(ctx context.Context, id int64) error
}

// Repositories bundles the four stores the GraphQL facade resolves against.
type Repositories struct {
	Countries  CountryRepository
	Viruses    VirusRepository
	Seasons    SeasonRepository
	Statistics StatisticRepository
}

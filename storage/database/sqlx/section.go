package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
)

type sectionRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	GradeLevel int         `db:"grade_level"`
	SchoolYear string      `db:"school_year"`
	AdviserID  null.String `db:"adviser_id"`
	Version    int         `db:"version"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
}

func newSectionRow(sec school.Section) sectionRow {
	return sectionRow{
		ID:         sec.ID,
		Name:       sec.Name,
		GradeLevel: sec.GradeLevel,
		SchoolYear: sec.SchoolYear,
		AdviserID:  null.NewString(sec.AdviserID, sec.AdviserID != ""),
		Version:    sec.Version,
		CreatedAt:  null.TimeFrom(sec.CreatedAt),
		UpdatedAt:  null.TimeFrom(sec.UpdatedAt),
	}
}

func (row sectionRow) toSection() school.Section {
	return school.Section{
		ID:         row.ID,
		Name:       row.Name,
		GradeLevel: row.GradeLevel,
		SchoolYear: row.SchoolYear,
		AdviserID:  row.AdviserID.String,
		Version:    row.Version,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

type sectionRepository struct {
	db core.DB
}

var _ school.Repository = (*sectionRepository)(nil) // interface compliance check

func NewSectionRepository(db core.DB) school.Repository {
	return &sectionRepository{db: db}
}

func (repo *sectionRepository) CheckSectionUniqueness(ctx context.Context, name, schoolYear string, excluded []school.Section, exec ...core.DBExecutor) error {
	ex := getExec(repo.db, exec)

	q := `SELECT EXISTS (SELECT 1 FROM sections WHERE lower(name) = lower(?) AND school_year = ?`
	args := []interface{}{name, schoolYear}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, sec := range excluded {
			ids = append(ids, sec.ID)
		}
		q += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	q += `)`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var exists bool
	if err := ex.GetContext(ctx, &exists, ex.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking section uniqueness")
	}
	if exists {
		return school.ErrSectionExists
	}
	return nil
}

func (repo *sectionRepository) CreateSection(ctx context.Context, sec school.Section, exec ...core.DBExecutor) (school.Section, error) {
	ex := getExec(repo.db, exec)

	sec.ID = uuid.New().String()
	sec.Version = 1
	q := `
INSERT INTO sections (id, name, grade_level, school_year, adviser_id, version, created_at, updated_at)
VALUES (:id, :name, :grade_level, :school_year, :adviser_id, :version, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, newSectionRow(sec)); err != nil {
		if isPqErr(err, pqUniqueViolation) {
			return school.Section{}, school.ErrSectionExists
		}
		return school.Section{}, errors.Wrap(err, "creating section")
	}
	return sec, nil
}

func (repo *sectionRepository) GetSection(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.Section, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM sections WHERE `
	var args []interface{}
	switch {
	case filter.ID != "":
		q += `id = ?`
		args = append(args, filter.ID)
	case filter.Name != "":
		q += `lower(name) = lower(?)`
		args = append(args, filter.Name)
		if filter.SchoolYear != "" {
			q += ` AND school_year = ?`
			args = append(args, filter.SchoolYear)
		}
	default:
		return school.Section{}, school.ErrNotFound
	}

	var row sectionRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(q), args...); err != nil {
		return school.Section{}, trapNoRowsErr(errors.Wrap(err, "getting section"), school.ErrNotFound)
	}
	return row.toSection(), nil
}

func (repo *sectionRepository) QuerySections(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Section, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM sections WHERE true`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			q += ` AND name ILIKE ?`
			args = append(args, "%"+filter.Search+"%")
		}
		if filter.GradeLevel != 0 {
			q += ` AND grade_level = ?`
			args = append(args, filter.GradeLevel)
		}
		if filter.SchoolYear != "" {
			q += ` AND school_year = ?`
			args = append(args, filter.SchoolYear)
		}
		if filter.AdviserID != "" {
			q += ` AND adviser_id = ?`
			args = append(args, filter.AdviserID)
		}
	}
	q += orderClause(ordering, "school_year DESC, name ASC")

	var rows []sectionRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	secs := make([]school.Section, 0, len(rows))
	for _, row := range rows {
		secs = append(secs, row.toSection())
	}
	return secs, nil
}

// UpdateSection matches on (id, version) so a concurrent writer cannot be
// silently overwritten.
func (repo *sectionRepository) UpdateSection(ctx context.Context, sec school.Section, exec ...core.DBExecutor) (school.Section, error) {
	ex := getExec(repo.db, exec)

	row := newSectionRow(sec)
	q := `
UPDATE sections
SET name = :name, grade_level = :grade_level, school_year = :school_year, adviser_id = :adviser_id,
    version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	res, err := sqlx.NamedExecContext(ctx, ex, q, row)
	if err != nil {
		if isPqErr(err, pqUniqueViolation) {
			return school.Section{}, school.ErrSectionExists
		}
		return school.Section{}, errors.Wrap(err, "updating section")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// no row for (id, version): either gone or concurrently bumped
		if _, err := repo.GetSection(ctx, school.GetFilter{ID: sec.ID}, exec...); err != nil {
			return school.Section{}, err
		}
		return school.Section{}, school.ErrConcurrentModification
	}
	sec.Version++
	return sec, nil
}

func (repo *sectionRepository) DeleteSectionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ex := getExec(repo.db, exec)

	q, args, err := sqlx.In(`DELETE FROM sections WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(q), args...)
	if err != nil {
		// quarter_packages.section_id is ON DELETE RESTRICT
		if isPqErr(err, pqFKViolation) {
			return 0, school.ErrSectionInUse
		}
		return 0, errors.Wrap(err, "deleting sections")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

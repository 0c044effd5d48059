package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/schedule"
)

type scheduleRow struct {
	ID         string         `db:"id"`
	TeacherID  string         `db:"teacher_id"`
	SectionID  string         `db:"section_id"`
	SubjectID  string         `db:"subject_id"`
	Quarter    int            `db:"quarter"`
	SchoolYear string         `db:"school_year"`
	Days       pq.StringArray `db:"days"`
	StartsAt   null.Time      `db:"starts_at"`
	EndsAt     null.Time      `db:"ends_at"`
	Room       null.String    `db:"room"`
	CreatedAt  null.Time      `db:"created_at"`
	UpdatedAt  null.Time      `db:"updated_at"`
}

func newScheduleRow(sched schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:         sched.ID,
		TeacherID:  sched.TeacherID,
		SectionID:  sched.SectionID,
		SubjectID:  sched.SubjectID,
		Quarter:    sched.Quarter,
		SchoolYear: sched.SchoolYear,
		Days:       sched.Days,
		StartsAt:   null.TimeFrom(sched.StartsAt),
		EndsAt:     null.TimeFrom(sched.EndsAt),
		Room:       null.NewString(sched.Room, sched.Room != ""),
		CreatedAt:  null.TimeFrom(sched.CreatedAt),
		UpdatedAt:  null.TimeFrom(sched.UpdatedAt),
	}
}

func (row scheduleRow) toSchedule() schedule.Schedule {
	return schedule.Schedule{
		ID:         row.ID,
		TeacherID:  row.TeacherID,
		SectionID:  row.SectionID,
		SubjectID:  row.SubjectID,
		Quarter:    row.Quarter,
		SchoolYear: row.SchoolYear,
		Days:       row.Days,
		StartsAt:   row.StartsAt.Time,
		EndsAt:     row.EndsAt.Time,
		Room:       row.Room.String,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

type scheduleRepository struct {
	db core.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, sched schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	ex := getExec(repo.db, exec)

	sched.ID = uuid.New().String()
	q := `
INSERT INTO schedules (id, teacher_id, section_id, subject_id, quarter, school_year, days, starts_at, ends_at, room, created_at, updated_at)
VALUES (:id, :teacher_id, :section_id, :subject_id, :quarter, :school_year, :days, :starts_at, :ends_at, :room, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, newScheduleRow(sched)); err != nil {
		// exclusion constraints back the conflict check against racing writers
		if isPqErr(err, pqExclusionViolation) {
			return schedule.Schedule{}, &schedule.ConflictError{}
		}
		return schedule.Schedule{}, errors.Wrap(err, "creating schedule")
	}
	return sched, nil
}

func (repo *scheduleRepository) GetSchedule(ctx context.Context, filter schedule.GetFilter, exec ...core.DBExecutor) (schedule.Schedule, error) {
	ex := getExec(repo.db, exec)

	var row scheduleRow
	q := ex.Rebind(`SELECT * FROM schedules WHERE id = ?`)
	if err := ex.GetContext(ctx, &row, q, filter.ID); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(errors.Wrap(err, "getting schedule"), schedule.ErrScheduleNotFound)
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) QuerySchedules(ctx context.Context, filter schedule.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]schedule.Schedule, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM schedules WHERE true`
	var args []interface{}
	if filter.TeacherID != "" {
		q += ` AND teacher_id = ?`
		args = append(args, filter.TeacherID)
	}
	if filter.SectionID != "" {
		q += ` AND section_id = ?`
		args = append(args, filter.SectionID)
	}
	if filter.Quarter != 0 {
		q += ` AND quarter = ?`
		args = append(args, filter.Quarter)
	}
	if filter.SchoolYear != "" {
		q += ` AND school_year = ?`
		args = append(args, filter.SchoolYear)
	}
	if filter.Room != "" {
		q += ` AND room = ?`
		args = append(args, filter.Room)
	}
	q += orderClause(ordering, "starts_at ASC")

	var rows []scheduleRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	scheds := make([]schedule.Schedule, 0, len(rows))
	for _, row := range rows {
		scheds = append(scheds, row.toSchedule())
	}
	return scheds, nil
}

// QueryCandidateOverlaps narrows to rows touching the candidate's teacher,
// section or room within the window; the detector owns the final verdict.
func (repo *scheduleRepository) QueryCandidateOverlaps(ctx context.Context, c schedule.Candidate, exec ...core.DBExecutor) ([]schedule.Schedule, error) {
	ex := getExec(repo.db, exec)

	q := `
SELECT * FROM schedules
WHERE (teacher_id = ? OR section_id = ? OR (? <> '' AND room = ?))
  AND starts_at < ? AND ends_at > ?
ORDER BY starts_at ASC`
	var rows []scheduleRow
	err := ex.SelectContext(ctx, &rows, ex.Rebind(q),
		c.TeacherID, c.SectionID, c.Room, c.Room, c.EndsAt.UTC(), c.StartsAt.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "querying overlapping schedules")
	}
	scheds := make([]schedule.Schedule, 0, len(rows))
	for _, row := range rows {
		scheds = append(scheds, row.toSchedule())
	}
	return scheds, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, sched schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	ex := getExec(repo.db, exec)

	q := `
UPDATE schedules
SET teacher_id = :teacher_id, subject_id = :subject_id, days = :days,
    starts_at = :starts_at, ends_at = :ends_at, room = :room, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, ex, q, newScheduleRow(sched))
	if err != nil {
		if isPqErr(err, pqExclusionViolation) {
			return schedule.Schedule{}, &schedule.ConflictError{}
		}
		return schedule.Schedule{}, errors.Wrap(err, "updating schedule")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Schedule{}, schedule.ErrScheduleNotFound
	}
	return sched, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	ex := getExec(repo.db, exec)

	q, args, err := sqlx.In(`DELETE FROM schedules WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := ex.ExecContext(ctx, ex.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting schedules")
	}
	return nil
}

package schedule

import (
	"context"
	"database/sql"
	"time"

	"github.com/trezcool/rekodi/core"
)

type Repository interface {
	CreateSchedule(ctx context.Context, sched Schedule, exec ...core.DBExecutor) (Schedule, error)
	GetSchedule(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Schedule, error)
	QuerySchedules(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Schedule, error)
	// QueryCandidateOverlaps returns schedules sharing the candidate's
	// teacher, section or room; interval filtering is the detector's job.
	QueryCandidateOverlaps(ctx context.Context, c Candidate, exec ...core.DBExecutor) ([]Schedule, error)
	UpdateSchedule(ctx context.Context, sched Schedule, exec ...core.DBExecutor) (Schedule, error)
	DeleteSchedulesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
}

type ServiceInterface interface {
	CheckConflicts(ctx context.Context, c Candidate) ([]Conflict, error)
	Create(ctx context.Context, ns NewSchedule) (Schedule, error)
	GetByID(ctx context.Context, id string) (Schedule, error)
	Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Schedule, error)
	Update(ctx context.Context, id string, us UpdateSchedule) (Schedule, error)
	Delete(ctx context.Context, ids ...string) error
}

type service struct {
	db   core.DB
	repo Repository
}

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{db: db, repo: repo}
}

// serializable guards the check-then-write window against racing inserts.
var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// CheckConflicts is the read-only dry run; it never writes.
func (svc *service) CheckConflicts(ctx context.Context, c Candidate) ([]Conflict, error) {
	if !c.StartsAt.Before(c.EndsAt) {
		return nil, &InvalidIntervalError{StartsAt: c.StartsAt, EndsAt: c.EndsAt}
	}
	existing, err := svc.repo.QueryCandidateOverlaps(ctx, c)
	if err != nil {
		return nil, err
	}
	return Detect(c, existing), nil
}

func (svc *service) Create(ctx context.Context, ns NewSchedule) (Schedule, error) {
	if !ns.StartsAt.Before(ns.EndsAt) {
		return Schedule{}, &InvalidIntervalError{StartsAt: ns.StartsAt, EndsAt: ns.EndsAt}
	}

	now := time.Now().UTC()
	sched := Schedule{
		TeacherID:  ns.TeacherID,
		SectionID:  ns.SectionID,
		SubjectID:  ns.SubjectID,
		Quarter:    ns.Quarter,
		SchoolYear: ns.SchoolYear,
		Days:       ns.Days,
		StartsAt:   ns.StartsAt.UTC(),
		EndsAt:     ns.EndsAt.UTC(),
		Room:       ns.Room,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := core.Atomic(ctx, svc.db, serializable, func(tx core.DBExecutor) error {
		if err := svc.rejectConflicts(ctx, ns.candidate(), tx); err != nil {
			return err
		}
		var err error
		sched, err = svc.repo.CreateSchedule(ctx, sched, tx)
		return err
	})
	if err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Schedule, error) {
	return svc.repo.GetSchedule(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSchedule) (Schedule, error) {
	orig, err := svc.repo.GetSchedule(ctx, GetFilter{ID: id})
	if err != nil {
		return Schedule{}, err
	}
	sched, err := us.merge(orig)
	if err != nil {
		return Schedule{}, err
	}
	sched.UpdatedAt = time.Now().UTC()

	cand := Candidate{
		TeacherID: sched.TeacherID,
		SectionID: sched.SectionID,
		Room:      sched.Room,
		StartsAt:  sched.StartsAt,
		EndsAt:    sched.EndsAt,
		ExcludeID: sched.ID, // never conflicts with its own row
	}
	err = core.Atomic(ctx, svc.db, serializable, func(tx core.DBExecutor) error {
		if err := svc.rejectConflicts(ctx, cand, tx); err != nil {
			return err
		}
		var err error
		sched, err = svc.repo.UpdateSchedule(ctx, sched, tx)
		return err
	})
	if err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSchedulesByID(ctx, ids)
}

func (svc *service) rejectConflicts(ctx context.Context, c Candidate, tx core.DBExecutor) error {
	existing, err := svc.repo.QueryCandidateOverlaps(ctx, c, tx)
	if err != nil {
		return err
	}
	if conflicts := Detect(c, existing); len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) query() []schedule.Schedule {
	scheds := make([]schedule.Schedule, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		scheds = append(scheds, *s)
	}
	sort.Slice(scheds, func(i, j int) bool { return scheds[i].StartsAt.Before(scheds[j].StartsAt) })
	return scheds
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, sched schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sched.ID = uuid.New().String()
	repo.db.table[sched.ID] = &sched
	return sched, nil
}

func (repo *scheduleRepository) GetSchedule(ctx context.Context, filter schedule.GetFilter, exec ...core.DBExecutor) (schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sched, ok := repo.db.table[filter.ID]; ok {
		return *sched, nil
	}
	return schedule.Schedule{}, schedule.ErrScheduleNotFound
}

func (repo *scheduleRepository) QuerySchedules(ctx context.Context, filter schedule.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	scheds := repo.query()
	if filter.IsEmpty() {
		return scheds, nil
	}

	var filtered []schedule.Schedule
	for _, s := range scheds {
		if filter.TeacherID != "" && s.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SectionID != "" && s.SectionID != filter.SectionID {
			continue
		}
		if filter.Quarter != 0 && s.Quarter != filter.Quarter {
			continue
		}
		if filter.SchoolYear != "" && s.SchoolYear != filter.SchoolYear {
			continue
		}
		if filter.Room != "" && s.Room != filter.Room {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered, nil
}

func (repo *scheduleRepository) QueryCandidateOverlaps(ctx context.Context, c schedule.Candidate, exec ...core.DBExecutor) ([]schedule.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var scheds []schedule.Schedule
	for _, s := range repo.query() {
		if s.TeacherID == c.TeacherID || s.SectionID == c.SectionID || (c.Room != "" && s.Room == c.Room) {
			scheds = append(scheds, s)
		}
	}
	return scheds, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, sched schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[sched.ID]; !ok {
		return schedule.Schedule{}, schedule.ErrScheduleNotFound
	}
	repo.db.table[sched.ID] = &sched
	return sched, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
)

type sectionRepository struct {
	db  *sectionTable
	rec *recordTable // consulted on delete, like the FK constraints do
}

var _ school.Repository = (*sectionRepository)(nil) // interface compliance check

func NewSectionRepository(db *DB) school.Repository {
	return &sectionRepository{db: db.section, rec: db.record}
}

func (repo *sectionRepository) query() []school.Section {
	secs := make([]school.Section, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		secs = append(secs, *s)
	}
	return secs
}

func (repo *sectionRepository) CheckSectionUniqueness(ctx context.Context, name, schoolYear string, excluded []school.Section, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, sec := range excluded {
		excl[sec.ID] = true
	}

	for _, sec := range repo.query() {
		if excl[sec.ID] {
			continue
		}
		if strings.EqualFold(sec.Name, name) && sec.SchoolYear == schoolYear {
			return school.ErrSectionExists
		}
	}
	return nil
}

func (repo *sectionRepository) CreateSection(ctx context.Context, sec school.Section, exec ...core.DBExecutor) (school.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sec.ID = uuid.New().String()
	sec.Version = 1
	repo.db.table[sec.ID] = &sec
	return sec, nil
}

func (repo *sectionRepository) GetSection(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if sec, ok := repo.db.table[filter.ID]; ok {
			return *sec, nil
		}
		return school.Section{}, school.ErrNotFound
	}
	for _, sec := range repo.query() {
		if filter.Name != "" && strings.EqualFold(sec.Name, filter.Name) &&
			(filter.SchoolYear == "" || sec.SchoolYear == filter.SchoolYear) {
			return sec, nil
		}
	}
	return school.Section{}, school.ErrNotFound
}

func (repo *sectionRepository) QuerySections(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	secs := repo.query()
	if filter == nil || filter.IsEmpty() {
		return secs, nil
	}

	if filter.Search != "" {
		var filtered []school.Section
		search := strings.ToLower(filter.Search)
		for _, s := range secs {
			if strings.Contains(strings.ToLower(s.Name), search) {
				filtered = append(filtered, s)
			}
		}
		secs = filtered
	}
	if secs != nil && filter.GradeLevel != 0 {
		var filtered []school.Section
		for _, s := range secs {
			if s.GradeLevel == filter.GradeLevel {
				filtered = append(filtered, s)
			}
		}
		secs = filtered
	}
	if secs != nil && filter.SchoolYear != "" {
		var filtered []school.Section
		for _, s := range secs {
			if s.SchoolYear == filter.SchoolYear {
				filtered = append(filtered, s)
			}
		}
		secs = filtered
	}
	if secs != nil && filter.AdviserID != "" {
		var filtered []school.Section
		for _, s := range secs {
			if s.AdviserID == filter.AdviserID {
				filtered = append(filtered, s)
			}
		}
		secs = filtered
	}
	return secs, nil
}

func (repo *sectionRepository) UpdateSection(ctx context.Context, sec school.Section, exec ...core.DBExecutor) (school.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sec.ID]
	if !ok {
		return school.Section{}, school.ErrNotFound
	}
	if orig.Version != sec.Version {
		return school.Section{}, school.ErrConcurrentModification
	}
	sec.Version++
	repo.db.table[sec.ID] = &sec
	return sec, nil
}

func (repo *sectionRepository) DeleteSectionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.rec.RLock()
	defer repo.rec.RUnlock()

	// refuse the whole batch if any section is still referenced
	for _, id := range ids {
		for _, pkg := range repo.rec.packages {
			if pkg.SectionID == id {
				return 0, school.ErrSectionInUse
			}
		}
	}

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

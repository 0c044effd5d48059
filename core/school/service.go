package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core"
)

var (
	// errors
	ErrNotFound      = errors.New("section not found")
	ErrSectionExists = errors.New("a section with this name already exists for this school year")
	// ErrConcurrentModification signals an optimistic-lock version mismatch:
	// the section changed under the caller since it was read.
	ErrConcurrentModification = errors.New("section was modified concurrently")
	// ErrSectionInUse blocks deletion of a section that quarter packages
	// still reference; their approval ledger must never be destroyed.
	ErrSectionInUse = errors.New("section has quarter packages attached")
)

type (
	Repository interface {
		CheckSectionUniqueness(ctx context.Context, name, schoolYear string, excluded []Section, exec ...core.DBExecutor) error
		CreateSection(ctx context.Context, sec Section, exec ...core.DBExecutor) (Section, error)
		GetSection(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Section, error)
		QuerySections(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Section, error)
		// UpdateSection matches on (ID, Version) and bumps Version; a stale
		// Version fails with ErrConcurrentModification.
		UpdateSection(ctx context.Context, sec Section, exec ...core.DBExecutor) (Section, error)
		DeleteSectionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	// DependentChecker reports whether records outside this package still
	// reference a section. Deletion is refused while any do.
	DependentChecker interface {
		SectionHasPackages(ctx context.Context, sectionID string, exec ...core.DBExecutor) (bool, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ns NewSection) (Section, error)
		GetByID(ctx context.Context, id string) (Section, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Section, error)
		Update(ctx context.Context, id string, us UpdateSection) (Section, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		db      core.DB
		repo    Repository
		checker DependentChecker
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, checker ...DependentChecker) *service {
	svc := &service{db: db, repo: repo}
	if len(checker) > 0 {
		svc.checker = checker[0]
	}
	return svc
}

func (svc *service) Create(ctx context.Context, ns NewSection) (Section, error) {
	if err := svc.repo.CheckSectionUniqueness(ctx, ns.Name, ns.SchoolYear, nil); err != nil {
		if errors.Cause(err) == ErrSectionExists {
			return Section{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Section{}, err
	}

	now := time.Now().UTC()
	sec := Section{
		Name:       ns.Name,
		GradeLevel: ns.GradeLevel,
		SchoolYear: ns.SchoolYear,
		AdviserID:  ns.AdviserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateSection(ctx, sec)
}

func (svc *service) GetByID(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSection(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Section, error) {
	return svc.repo.QuerySections(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSection) (Section, error) {
	sec, err := svc.repo.GetSection(ctx, GetFilter{ID: id})
	if err != nil {
		return Section{}, err
	}
	if us.Version != sec.Version {
		return Section{}, ErrConcurrentModification
	}

	if us.Name != "" && us.Name != sec.Name {
		if err := svc.repo.CheckSectionUniqueness(ctx, us.Name, sec.SchoolYear, []Section{sec}); err != nil {
			if errors.Cause(err) == ErrSectionExists {
				return Section{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
			}
			return Section{}, err
		}
		sec.Name = us.Name
	}
	if us.GradeLevel != 0 {
		sec.GradeLevel = us.GradeLevel
	}
	if us.AdviserID != "" {
		sec.AdviserID = us.AdviserID
	}
	sec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSection(ctx, sec)
}

// Delete removes sections. Sections with quarter packages attached are
// refused; the packages and their approval ledger must outlive the request.
func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if svc.checker != nil {
		for _, id := range ids {
			has, err := svc.checker.SectionHasPackages(ctx, id)
			if err != nil {
				return err
			}
			if has {
				return ErrSectionInUse
			}
		}
	}
	_, err := svc.repo.DeleteSectionsByID(ctx, ids)
	return err
}

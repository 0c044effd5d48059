package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/record"
)

type recordRepository struct {
	db *recordTable
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) record.Repository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) query() []record.QuarterPackage {
	pkgs := make([]record.QuarterPackage, 0, len(repo.db.packages))
	for _, p := range repo.db.packages {
		pkgs = append(pkgs, *p)
	}
	return pkgs
}

func (repo *recordRepository) CreatePackage(ctx context.Context, pkg record.QuarterPackage, exec ...core.DBExecutor) (record.QuarterPackage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, p := range repo.db.packages {
		if p.SectionID == pkg.SectionID && p.Quarter == pkg.Quarter {
			return record.QuarterPackage{}, record.ErrPackageExists
		}
	}
	pkg.ID = uuid.New().String()
	repo.db.packages[pkg.ID] = &pkg
	return pkg, nil
}

func (repo *recordRepository) GetPackage(ctx context.Context, filter record.GetFilter, exec ...core.DBExecutor) (record.QuarterPackage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if pkg, ok := repo.db.packages[filter.ID]; ok {
			return *pkg, nil
		}
		return record.QuarterPackage{}, record.ErrPackageNotFound
	}
	for _, pkg := range repo.query() {
		if pkg.SectionID == filter.SectionID && pkg.Quarter == filter.Quarter {
			return pkg, nil
		}
	}
	return record.QuarterPackage{}, record.ErrPackageNotFound
}

func (repo *recordRepository) SectionHasPackages(ctx context.Context, sectionID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, pkg := range repo.db.packages {
		if pkg.SectionID == sectionID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *recordRepository) QueryPackages(ctx context.Context, filter record.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]record.QuarterPackage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pkgs := repo.query()
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].CreatedAt.Before(pkgs[j].CreatedAt) })
	if filter.IsEmpty() {
		return pkgs, nil
	}

	var filtered []record.QuarterPackage
	for _, p := range pkgs {
		if filter.SectionID != "" && p.SectionID != filter.SectionID {
			continue
		}
		if filter.TeacherID != "" && p.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Quarter != 0 && p.Quarter != filter.Quarter {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (repo *recordRepository) UpdatePackage(ctx context.Context, pkg record.QuarterPackage, exec ...core.DBExecutor) (record.QuarterPackage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.packages[pkg.ID]; !ok {
		return record.QuarterPackage{}, record.ErrPackageNotFound
	}
	repo.db.packages[pkg.ID] = &pkg
	return pkg, nil
}

func (repo *recordRepository) AppendApproval(ctx context.Context, appr record.Approval, exec ...core.DBExecutor) (record.Approval, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	appr.ID = uuid.New().String()
	repo.db.approvals = append(repo.db.approvals, appr)
	return appr, nil
}

func (repo *recordRepository) QueryApprovals(ctx context.Context, packageID string, exec ...core.DBExecutor) ([]record.Approval, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var apprs []record.Approval
	for _, a := range repo.db.approvals {
		if a.PackageID == packageID {
			apprs = append(apprs, a)
		}
	}
	return apprs, nil
}

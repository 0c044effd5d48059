package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/record"
)

type packageRow struct {
	ID          string      `db:"id"`
	SectionID   string      `db:"section_id"`
	Quarter     int         `db:"quarter"`
	TeacherID   string      `db:"teacher_id"`
	Status      string      `db:"status"`
	SubmittedAt null.Time   `db:"submitted_at"`
	AdviserID   null.String `db:"adviser_id"`
	Remarks     null.String `db:"remarks"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func newPackageRow(pkg record.QuarterPackage) packageRow {
	row := packageRow{
		ID:        pkg.ID,
		SectionID: pkg.SectionID,
		Quarter:   pkg.Quarter,
		TeacherID: pkg.TeacherID,
		Status:    string(pkg.Status),
		AdviserID: null.NewString(pkg.AdviserID, pkg.AdviserID != ""),
		Remarks:   null.NewString(pkg.Remarks, pkg.Remarks != ""),
		CreatedAt: null.TimeFrom(pkg.CreatedAt),
		UpdatedAt: null.TimeFrom(pkg.UpdatedAt),
	}
	if pkg.SubmittedAt != nil {
		row.SubmittedAt = null.TimeFrom(*pkg.SubmittedAt)
	}
	return row
}

func (row packageRow) toPackage() record.QuarterPackage {
	pkg := record.QuarterPackage{
		ID:        row.ID,
		SectionID: row.SectionID,
		Quarter:   row.Quarter,
		TeacherID: row.TeacherID,
		Status:    record.Status(row.Status),
		AdviserID: row.AdviserID.String,
		Remarks:   row.Remarks.String,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.SubmittedAt.Valid {
		t := row.SubmittedAt.Time
		pkg.SubmittedAt = &t
	}
	return pkg
}

type approvalRow struct {
	ID         string      `db:"id"`
	PackageID  string      `db:"package_id"`
	ApproverID string      `db:"approver_id"`
	Action     string      `db:"action"`
	Remarks    null.String `db:"remarks"`
	CreatedAt  null.Time   `db:"created_at"`
}

func (row approvalRow) toApproval() record.Approval {
	return record.Approval{
		ID:         row.ID,
		PackageID:  row.PackageID,
		ApproverID: row.ApproverID,
		Action:     record.Action(row.Action),
		Remarks:    row.Remarks.String,
		CreatedAt:  row.CreatedAt.Time,
	}
}

type recordRepository struct {
	db core.DB
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db core.DB) record.Repository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) CreatePackage(ctx context.Context, pkg record.QuarterPackage, exec ...core.DBExecutor) (record.QuarterPackage, error) {
	ex := getExec(repo.db, exec)

	pkg.ID = uuid.New().String()
	q := `
INSERT INTO quarter_packages (id, section_id, quarter, teacher_id, status, submitted_at, adviser_id, remarks, created_at, updated_at)
VALUES (:id, :section_id, :quarter, :teacher_id, :status, :submitted_at, :adviser_id, :remarks, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, newPackageRow(pkg)); err != nil {
		if isPqErr(err, pqUniqueViolation) {
			return record.QuarterPackage{}, record.ErrPackageExists
		}
		return record.QuarterPackage{}, errors.Wrap(err, "creating package")
	}
	return pkg, nil
}

func (repo *recordRepository) GetPackage(ctx context.Context, filter record.GetFilter, exec ...core.DBExecutor) (record.QuarterPackage, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM quarter_packages WHERE `
	var args []interface{}
	switch {
	case filter.ID != "":
		q += `id = ?`
		args = append(args, filter.ID)
	case filter.SectionID != "" && filter.Quarter != 0:
		q += `section_id = ? AND quarter = ?`
		args = append(args, filter.SectionID, filter.Quarter)
	default:
		return record.QuarterPackage{}, record.ErrPackageNotFound
	}

	var row packageRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(q), args...); err != nil {
		return record.QuarterPackage{}, trapNoRowsErr(errors.Wrap(err, "getting package"), record.ErrPackageNotFound)
	}
	return row.toPackage(), nil
}

func (repo *recordRepository) SectionHasPackages(ctx context.Context, sectionID string, exec ...core.DBExecutor) (bool, error) {
	ex := getExec(repo.db, exec)

	var exists bool
	q := ex.Rebind(`SELECT EXISTS (SELECT 1 FROM quarter_packages WHERE section_id = ?)`)
	if err := ex.GetContext(ctx, &exists, q, sectionID); err != nil {
		return false, errors.Wrap(err, "checking section packages")
	}
	return exists, nil
}

func (repo *recordRepository) QueryPackages(ctx context.Context, filter record.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]record.QuarterPackage, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM quarter_packages WHERE true`
	var args []interface{}
	if filter.SectionID != "" {
		q += ` AND section_id = ?`
		args = append(args, filter.SectionID)
	}
	if filter.TeacherID != "" {
		q += ` AND teacher_id = ?`
		args = append(args, filter.TeacherID)
	}
	if filter.Quarter != 0 {
		q += ` AND quarter = ?`
		args = append(args, filter.Quarter)
	}
	if filter.Status != "" {
		q += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	q += orderClause(ordering, "created_at ASC")

	var rows []packageRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying packages")
	}
	pkgs := make([]record.QuarterPackage, 0, len(rows))
	for _, row := range rows {
		pkgs = append(pkgs, row.toPackage())
	}
	return pkgs, nil
}

func (repo *recordRepository) UpdatePackage(ctx context.Context, pkg record.QuarterPackage, exec ...core.DBExecutor) (record.QuarterPackage, error) {
	ex := getExec(repo.db, exec)

	q := `
UPDATE quarter_packages
SET status = :status, submitted_at = :submitted_at, adviser_id = :adviser_id, remarks = :remarks, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, ex, q, newPackageRow(pkg))
	if err != nil {
		return record.QuarterPackage{}, errors.Wrap(err, "updating package")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return record.QuarterPackage{}, record.ErrPackageNotFound
	}
	return pkg, nil
}

// AppendApproval only ever inserts; ledger rows are immutable.
func (repo *recordRepository) AppendApproval(ctx context.Context, appr record.Approval, exec ...core.DBExecutor) (record.Approval, error) {
	ex := getExec(repo.db, exec)

	appr.ID = uuid.New().String()
	q := `
INSERT INTO record_approvals (id, package_id, approver_id, action, remarks, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, ex.Rebind(q),
		appr.ID, appr.PackageID, appr.ApproverID, string(appr.Action),
		null.NewString(appr.Remarks, appr.Remarks != ""), appr.CreatedAt)
	if err != nil {
		return record.Approval{}, errors.Wrap(err, "appending approval")
	}
	return appr, nil
}

func (repo *recordRepository) QueryApprovals(ctx context.Context, packageID string, exec ...core.DBExecutor) ([]record.Approval, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM record_approvals WHERE package_id = ? ORDER BY created_at ASC, id ASC`
	var rows []approvalRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), packageID); err != nil {
		return nil, errors.Wrap(err, "querying approvals")
	}
	apprs := make([]record.Approval, 0, len(rows))
	for _, row := range rows {
		apprs = append(apprs, row.toApproval())
	}
	return apprs, nil
}

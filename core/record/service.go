package record

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
)

type Repository interface {
	CreatePackage(ctx context.Context, pkg QuarterPackage, exec ...core.DBExecutor) (QuarterPackage, error)
	GetPackage(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (QuarterPackage, error)
	QueryPackages(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]QuarterPackage, error)
	SectionHasPackages(ctx context.Context, sectionID string, exec ...core.DBExecutor) (bool, error)
	UpdatePackage(ctx context.Context, pkg QuarterPackage, exec ...core.DBExecutor) (QuarterPackage, error)
	AppendApproval(ctx context.Context, appr Approval, exec ...core.DBExecutor) (Approval, error)
	QueryApprovals(ctx context.Context, packageID string, exec ...core.DBExecutor) ([]Approval, error)
}

type ServiceInterface interface {
	Submit(ctx context.Context, actor user.User, sp SubmitPackage) (QuarterPackage, error)
	Approve(ctx context.Context, actor user.User, packageID string, rp ReviewPackage) (QuarterPackage, error)
	Return(ctx context.Context, actor user.User, packageID string, rp ReviewPackage) (QuarterPackage, error)
	Forward(ctx context.Context, actor user.User, packageID string) (QuarterPackage, error)
	Publish(ctx context.Context, actor user.User, packageID string, rp ReviewPackage) (QuarterPackage, error)
	GetByID(ctx context.Context, id string) (QuarterPackage, error)
	Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]QuarterPackage, error)
	Approvals(ctx context.Context, packageID string) ([]Approval, error)
}

type service struct {
	db      core.DB
	repo    Repository
	secSvc  school.ServiceInterface
	usrSvc  user.ServiceInterface
	mailSvc core.EmailService
	conf    *core.Config
}

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, secSvc school.ServiceInterface, usrSvc user.ServiceInterface, mailSvc core.EmailService, conf *core.Config) *service {
	return &service{
		db:      db,
		repo:    repo,
		secSvc:  secSvc,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// Submit hands a section-quarter package off for adviser review. When no
// package exists yet for (SectionID, Quarter), a pending one owned by the
// acting teacher is created and submitted in the same transaction.
func (svc *service) Submit(ctx context.Context, actor user.User, sp SubmitPackage) (QuarterPackage, error) {
	sec, err := svc.secSvc.GetByID(ctx, sp.SectionID)
	if err != nil {
		return QuarterPackage{}, err
	}

	pkg, err := svc.repo.GetPackage(ctx, GetFilter{SectionID: sp.SectionID, Quarter: sp.Quarter})
	created := false
	if err != nil {
		if errors.Cause(err) != ErrPackageNotFound {
			return QuarterPackage{}, err
		}
		now := time.Now().UTC()
		pkg = QuarterPackage{
			SectionID: sp.SectionID,
			Quarter:   sp.Quarter,
			TeacherID: actor.ID,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created = true
	}

	next, _, err := Transition(actor, sec, pkg, ActionSubmit)
	if err != nil {
		return QuarterPackage{}, err
	}
	now := time.Now().UTC()
	pkg.Status = next
	pkg.SubmittedAt = &now
	pkg.Remarks = ""
	pkg.UpdatedAt = now

	err = core.Atomic(ctx, svc.db, nil, func(tx core.DBExecutor) error {
		var err error
		if created {
			pkg, err = svc.repo.CreatePackage(ctx, pkg, tx)
		} else {
			pkg, err = svc.repo.UpdatePackage(ctx, pkg, tx)
		}
		return err
	})
	if err != nil {
		return QuarterPackage{}, err
	}
	return pkg, nil
}

// Approve moves a submitted package forward one review stage. At the admin
// stage it publishes.
func (svc *service) Approve(ctx context.Context, actor user.User, packageID string, rp ReviewPackage) (QuarterPackage, error) {
	return svc.review(ctx, actor, packageID, ActionApprove, rp.Remarks)
}

// Return sends a package back to its teacher with remarks for rework.
func (svc *service) Return(ctx context.Context, actor user.User, packageID string, rp ReviewPackage) (QuarterPackage, error) {
	pkg, err := svc.review(ctx, actor, packageID, ActionReturn, rp.Remarks)
	if err != nil {
		return QuarterPackage{}, err
	}
	svc.notifyReturned(ctx, pkg)
	return pkg, nil
}

// Forward escalates an adviser-approved package to the admin stage.
func (svc *service) Forward(ctx context.Context, actor user.User, packageID string) (QuarterPackage, error) {
	pkg, err := svc.repo.GetPackage(ctx, GetFilter{ID: packageID})
	if err != nil {
		return QuarterPackage{}, err
	}
	sec, err := svc.secSvc.GetByID(ctx, pkg.SectionID)
	if err != nil {
		return QuarterPackage{}, err
	}

	next, _, err := Transition(actor, sec, pkg, ActionForward)
	if err != nil {
		return QuarterPackage{}, err
	}
	pkg.Status = next
	pkg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePackage(ctx, pkg)
}

// Publish is the admin's final approval. It only applies at the
// forwarded-to-admin stage.
func (svc *service) Publish(ctx context.Context, actor user.User, packageID string, rp ReviewPackage) (QuarterPackage, error) {
	pkg, err := svc.repo.GetPackage(ctx, GetFilter{ID: packageID})
	if err != nil {
		return QuarterPackage{}, err
	}
	if pkg.Status != StatusForwardedToAdmin {
		return QuarterPackage{}, &InvalidTransitionError{Status: pkg.Status, Action: ActionPublish}
	}
	return svc.review(ctx, actor, packageID, ActionApprove, rp.Remarks)
}

func (svc *service) GetByID(ctx context.Context, id string) (QuarterPackage, error) {
	return svc.repo.GetPackage(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]QuarterPackage, error) {
	return svc.repo.QueryPackages(ctx, filter, ordering)
}

func (svc *service) Approvals(ctx context.Context, packageID string) ([]Approval, error) {
	if _, err := svc.repo.GetPackage(ctx, GetFilter{ID: packageID}); err != nil {
		return nil, err
	}
	return svc.repo.QueryApprovals(ctx, packageID)
}

// review applies a ledgered edge: the status change and its Approval row
// commit together or not at all.
func (svc *service) review(ctx context.Context, actor user.User, packageID string, action Action, remarks string) (QuarterPackage, error) {
	pkg, err := svc.repo.GetPackage(ctx, GetFilter{ID: packageID})
	if err != nil {
		return QuarterPackage{}, err
	}
	sec, err := svc.secSvc.GetByID(ctx, pkg.SectionID)
	if err != nil {
		return QuarterPackage{}, err
	}

	next, ledger, err := Transition(actor, sec, pkg, action)
	if err != nil {
		return QuarterPackage{}, err
	}
	now := time.Now().UTC()
	// only the adviser stage stamps AdviserID; admin edges leave it as the
	// adviser who last acted
	if pkg.Status == StatusSubmitted {
		pkg.AdviserID = sec.AdviserID
	}
	pkg.Status = next
	pkg.UpdatedAt = now
	if action == ActionReturn {
		pkg.Remarks = remarks
	}

	err = core.Atomic(ctx, svc.db, nil, func(tx core.DBExecutor) error {
		var err error
		if pkg, err = svc.repo.UpdatePackage(ctx, pkg, tx); err != nil {
			return err
		}
		if ledger {
			_, err = svc.repo.AppendApproval(ctx, Approval{
				PackageID:  pkg.ID,
				ApproverID: actor.ID,
				Action:     action,
				Remarks:    remarks,
				CreatedAt:  now,
			}, tx)
		}
		return err
	})
	if err != nil {
		return QuarterPackage{}, err
	}
	return pkg, nil
}

// notifyReturned emails the owning teacher. Delivery is best effort and
// never fails the transition; the email service logs its own errors.
func (svc *service) notifyReturned(ctx context.Context, pkg QuarterPackage) {
	owner, err := svc.usrSvc.GetByID(ctx, pkg.TeacherID)
	if err != nil {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: owner.Name, Address: owner.Email}},
		Subject:      "Quarter package returned",
		TemplateName: "package-returned",
		TemplateData: struct {
			User    user.User
			Quarter int
			Remarks string
		}{owner, pkg.Quarter, pkg.Remarks},
	}
	svc.mailSvc.SendMessages(msg)
}

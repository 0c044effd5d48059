package record_test

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
	emailsvc "github.com/trezcool/rekodi/services/email"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
	testutil "github.com/trezcool/rekodi/tests"
)

type recordTestEnv struct {
	svc     record.ServiceInterface
	repo    record.Repository
	usrRepo user.Repository
	secRepo school.Repository

	teacher user.User
	adviser user.User
	admin   user.User
	section school.Section
}

func newRecordTestEnv(t *testing.T) *recordTestEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{
		AppName:          "Rekodi",
		TestMode:         true,
		DefaultFromEmail: mail.Address{Address: "noreply@test.cd"},
	}
	usrRepo := dummydb.NewUserRepository(db)
	secRepo := dummydb.NewSectionRepository(db)
	recRepo := dummydb.NewRecordRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(nil, usrRepo, mailSvc, conf)
	secSvc := school.NewService(nil, secRepo, recRepo)

	env := &recordTestEnv{
		svc:     record.NewService(nil, recRepo, secSvc, usrSvc, mailSvc, conf),
		repo:    recRepo,
		usrRepo: usrRepo,
		secRepo: secRepo,
	}
	env.teacher = testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	env.adviser = testutil.CreateUser(t, usrRepo, "Adviser", "adviser", "adviser@test.cd", "", []string{user.RoleTeacher}, true)
	env.admin = testutil.CreateUser(t, usrRepo, "Principal", "princip", "princip@test.cd", "", []string{user.RoleAdminPrincipal}, true)
	env.section = testutil.CreateSection(t, secRepo, "Grade 7 - Rose", 7, "2025-2026", env.adviser.ID)
	return env
}

func Test_service_Submit(t *testing.T) {
	env := newRecordTestEnv(t)
	ctx := context.Background()

	t.Run("creates a pending package on first submission", func(t *testing.T) {
		pkg, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 1})
		require.NoError(t, err)
		assert.NotEmpty(t, pkg.ID)
		assert.Equal(t, record.StatusSubmitted, pkg.Status)
		assert.Equal(t, env.teacher.ID, pkg.TeacherID)
		require.NotNil(t, pkg.SubmittedAt)
	})

	t.Run("cannot submit twice", func(t *testing.T) {
		_, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 1})
		assert.IsType(t, &record.InvalidTransitionError{}, err)
	})

	t.Run("unknown section", func(t *testing.T) {
		_, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: "lol", Quarter: 1})
		assert.Equal(t, school.ErrNotFound, err)
	})

	t.Run("other teacher cannot submit an owned package", func(t *testing.T) {
		intruder := testutil.CreateUser(t, env.usrRepo, "Intruder", "intrude", "intrude@test.cd", "", []string{user.RoleTeacher}, true)
		_, err := env.svc.Submit(ctx, intruder, record.SubmitPackage{SectionID: env.section.ID, Quarter: 1})
		assert.IsType(t, &record.UnauthorizedTransitionError{}, err)
	})
}

func Test_service_Approve(t *testing.T) {
	env := newRecordTestEnv(t)
	ctx := context.Background()

	pkg, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 1})
	require.NoError(t, err)

	t.Run("owner cannot approve", func(t *testing.T) {
		_, err := env.svc.Approve(ctx, env.teacher, pkg.ID, record.ReviewPackage{})
		assert.IsType(t, &record.UnauthorizedTransitionError{}, err)
	})

	t.Run("adviser approval appends exactly one ledger entry", func(t *testing.T) {
		approved, err := env.svc.Approve(ctx, env.adviser, pkg.ID, record.ReviewPackage{Remarks: "LGTM"})
		require.NoError(t, err)
		assert.Equal(t, record.StatusApproved, approved.Status)
		assert.Equal(t, env.adviser.ID, approved.AdviserID)

		apprs, err := env.svc.Approvals(ctx, pkg.ID)
		require.NoError(t, err)
		require.Len(t, apprs, 1)
		assert.Equal(t, env.adviser.ID, apprs[0].ApproverID)
		assert.Equal(t, record.ActionApprove, apprs[0].Action)
		assert.Equal(t, "LGTM", apprs[0].Remarks)
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := env.svc.Approve(ctx, env.adviser, "lol", record.ReviewPackage{})
		assert.Equal(t, record.ErrPackageNotFound, err)
	})
}

func Test_service_Return(t *testing.T) {
	env := newRecordTestEnv(t)
	ctx := context.Background()

	pkg, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 2})
	require.NoError(t, err)

	emailsvc.SentMessages = nil

	returned, err := env.svc.Return(ctx, env.adviser, pkg.ID, record.ReviewPackage{Remarks: "missing attendance for week 3"})
	require.NoError(t, err)
	assert.Equal(t, record.StatusReturned, returned.Status)
	assert.Equal(t, "missing attendance for week 3", returned.Remarks)
	assert.Equal(t, record.StatusPending, returned.Status.TeacherFacing())

	apprs, err := env.svc.Approvals(ctx, pkg.ID)
	require.NoError(t, err)
	require.Len(t, apprs, 1)
	assert.Equal(t, record.ActionReturn, apprs[0].Action)

	// owning teacher is notified
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "Quarter package returned", msg.Subject)
	assert.Equal(t, []mail.Address{{Name: env.teacher.Name, Address: env.teacher.Email}}, msg.To)
	assert.Contains(t, msg.TextContent, "missing attendance for week 3")

	t.Run("owner can rework and resubmit", func(t *testing.T) {
		resubmitted, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 2})
		require.NoError(t, err)
		assert.Equal(t, record.StatusSubmitted, resubmitted.Status)
		assert.Empty(t, resubmitted.Remarks)
	})
}

func Test_service_Publish(t *testing.T) {
	env := newRecordTestEnv(t)
	ctx := context.Background()

	pkg, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 3})
	require.NoError(t, err)

	t.Run("cannot publish before forwarding", func(t *testing.T) {
		_, err := env.svc.Publish(ctx, env.admin, pkg.ID, record.ReviewPackage{})
		assert.EqualError(t, err, (&record.InvalidTransitionError{Status: record.StatusSubmitted, Action: record.ActionPublish}).Error())
	})

	_, err = env.svc.Approve(ctx, env.adviser, pkg.ID, record.ReviewPackage{})
	require.NoError(t, err)
	fwd, err := env.svc.Forward(ctx, env.adviser, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, record.StatusForwardedToAdmin, fwd.Status)
	assert.Equal(t, env.adviser.ID, fwd.AdviserID)

	// hand the section to a new adviser; the admin edge must not restamp it
	newAdviser := testutil.CreateUser(t, env.usrRepo, "Adviser 2", "adviser2", "adviser2@test.cd", "", []string{user.RoleTeacher}, true)
	sec, err := env.secRepo.GetSection(ctx, school.GetFilter{ID: env.section.ID})
	require.NoError(t, err)
	sec.AdviserID = newAdviser.ID
	_, err = env.secRepo.UpdateSection(ctx, sec)
	require.NoError(t, err)

	t.Run("adviser cannot publish", func(t *testing.T) {
		_, err := env.svc.Publish(ctx, env.adviser, pkg.ID, record.ReviewPackage{})
		assert.IsType(t, &record.UnauthorizedTransitionError{}, err)
	})

	published, err := env.svc.Publish(ctx, env.admin, pkg.ID, record.ReviewPackage{})
	require.NoError(t, err)
	assert.Equal(t, record.StatusPublished, published.Status)
	assert.Equal(t, env.adviser.ID, published.AdviserID)

	// the full trail: adviser approval then admin publication
	apprs, err := env.svc.Approvals(ctx, pkg.ID)
	require.NoError(t, err)
	require.Len(t, apprs, 2)
	assert.Equal(t, env.adviser.ID, apprs[0].ApproverID)
	assert.Equal(t, env.admin.ID, apprs[1].ApproverID)

	t.Run("published is terminal", func(t *testing.T) {
		_, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 3})
		assert.IsType(t, &record.InvalidTransitionError{}, err)
	})
}

func Test_service_Query(t *testing.T) {
	env := newRecordTestEnv(t)
	ctx := context.Background()

	pkg1, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: env.section.ID, Quarter: 1})
	require.NoError(t, err)
	sec2 := testutil.CreateSection(t, env.secRepo, "Grade 8 - Lily", 8, "2025-2026", env.adviser.ID)
	pkg2, err := env.svc.Submit(ctx, env.teacher, record.SubmitPackage{SectionID: sec2.ID, Quarter: 1})
	require.NoError(t, err)
	_, err = env.svc.Approve(ctx, env.adviser, pkg2.ID, record.ReviewPackage{})
	require.NoError(t, err)

	ids := func(pkgs []record.QuarterPackage) []string {
		out := make([]string, 0, len(pkgs))
		for _, p := range pkgs {
			out = append(out, p.ID)
		}
		return out
	}

	pkgs, err := env.svc.Query(ctx, record.QueryFilter{TeacherID: env.teacher.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pkg1.ID, pkg2.ID}, ids(pkgs))

	pkgs, err = env.svc.Query(ctx, record.QueryFilter{SectionID: env.section.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pkg1.ID}, ids(pkgs))

	pkgs, err = env.svc.Query(ctx, record.QueryFilter{Status: record.StatusApproved})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pkg2.ID}, ids(pkgs))
}

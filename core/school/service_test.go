package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
	testutil "github.com/trezcool/rekodi/tests"
)

func Test_service_Delete(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)
	usrRepo := dummydb.NewUserRepository(db)
	secRepo := dummydb.NewSectionRepository(db)
	recRepo := dummydb.NewRecordRepository(db)
	svc := school.NewService(nil, secRepo, recRepo)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	sec := testutil.CreateSection(t, secRepo, "Grade 8 - Lily", 8, "2025-2026", teacher.ID)
	pkg := testutil.CreatePackage(t, recRepo, sec.ID, 2, teacher.ID, record.StatusPublished)
	_, err = recRepo.AppendApproval(ctx, record.Approval{
		PackageID:  pkg.ID,
		ApproverID: teacher.ID,
		Action:     record.ActionApprove,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	t.Run("refuses a section with packages attached", func(t *testing.T) {
		err := svc.Delete(ctx, sec.ID)
		assert.Equal(t, school.ErrSectionInUse, err)

		// the section, its package and the approval ledger all survive
		_, err = secRepo.GetSection(ctx, school.GetFilter{ID: sec.ID})
		assert.NoError(t, err)
		got, err := recRepo.GetPackage(ctx, record.GetFilter{ID: pkg.ID})
		require.NoError(t, err)
		assert.Equal(t, sec.ID, got.SectionID)
		apprs, err := recRepo.QueryApprovals(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Len(t, apprs, 1)
	})

	t.Run("repository refuses referenced sections on its own", func(t *testing.T) {
		_, err := secRepo.DeleteSectionsByID(ctx, []string{sec.ID})
		assert.Equal(t, school.ErrSectionInUse, err)
	})

	t.Run("deletes an unreferenced section", func(t *testing.T) {
		empty := testutil.CreateSection(t, secRepo, "Grade 8 - Daisy", 8, "2025-2026", teacher.ID)
		require.NoError(t, svc.Delete(ctx, empty.ID))
		_, err := secRepo.GetSection(ctx, school.GetFilter{ID: empty.ID})
		assert.Equal(t, school.ErrNotFound, err)
	})
}

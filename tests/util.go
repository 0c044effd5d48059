package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/schedule"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSection(
	t *testing.T,
	repo school.Repository,
	name string,
	gradeLevel int,
	schoolYear, adviserID string,
) school.Section {
	t.Helper()

	now := time.Now().UTC()
	sec := school.Section{
		Name:       name,
		GradeLevel: gradeLevel,
		SchoolYear: schoolYear,
		AdviserID:  adviserID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sec, err := repo.CreateSection(context.Background(), sec)
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	return sec
}

func CreatePackage(
	t *testing.T,
	repo record.Repository,
	sectionID string,
	quarter int,
	teacherID string,
	status record.Status,
) record.QuarterPackage {
	t.Helper()

	now := time.Now().UTC()
	pkg := record.QuarterPackage{
		SectionID: sectionID,
		Quarter:   quarter,
		TeacherID: teacherID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status != record.StatusPending {
		pkg.SubmittedAt = &now
	}
	pkg, err := repo.CreatePackage(context.Background(), pkg)
	if err != nil {
		t.Fatalf("CreatePackage() failed: %v", err)
	}
	return pkg
}

func CreateSchedule(
	t *testing.T,
	repo schedule.Repository,
	teacherID, sectionID, subjectID string,
	quarter int,
	schoolYear string,
	startsAt, endsAt time.Time,
	room string,
) schedule.Schedule {
	t.Helper()

	now := time.Now().UTC()
	sched := schedule.Schedule{
		TeacherID:  teacherID,
		SectionID:  sectionID,
		SubjectID:  subjectID,
		Quarter:    quarter,
		SchoolYear: schoolYear,
		StartsAt:   startsAt.UTC(),
		EndsAt:     endsAt.UTC(),
		Room:       room,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sched, err := repo.CreateSchedule(context.Background(), sched)
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	return sched
}

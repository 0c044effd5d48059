package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var day = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
		{"back to back", at(8, 0), at(9, 0), at(9, 0), at(10, 0), false},
		{"back to back reversed", at(9, 0), at(10, 0), at(8, 0), at(9, 0), false},
		{"partial overlap", at(8, 0), at(9, 30), at(9, 0), at(10, 0), true},
		{"contained", at(8, 0), at(12, 0), at(9, 0), at(10, 0), true},
		{"containing", at(9, 0), at(10, 0), at(8, 0), at(12, 0), true},
		{"identical", at(8, 0), at(9, 0), at(8, 0), at(9, 0), true},
		{"one minute overlap", at(8, 0), at(9, 1), at(9, 0), at(10, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			// overlap is symmetric
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestDetect(t *testing.T) {
	existing := []Schedule{
		{ID: "s1", TeacherID: "t1", SectionID: "sec1", Room: "101", StartsAt: at(8, 0), EndsAt: at(9, 0)},
		{ID: "s2", TeacherID: "t2", SectionID: "sec2", Room: "102", StartsAt: at(8, 30), EndsAt: at(9, 30)},
		{ID: "s3", TeacherID: "t3", SectionID: "sec3", StartsAt: at(13, 0), EndsAt: at(14, 0)},
	}

	t.Run("teacher collision", func(t *testing.T) {
		got := Detect(Candidate{TeacherID: "t1", SectionID: "secX", StartsAt: at(8, 30), EndsAt: at(9, 30)}, existing)
		assert.Len(t, got, 1)
		assert.Equal(t, DimensionTeacher, got[0].Dimension)
		assert.Equal(t, "s1", got[0].Schedule.ID)
	})

	t.Run("section collision across teachers", func(t *testing.T) {
		got := Detect(Candidate{TeacherID: "tX", SectionID: "sec2", StartsAt: at(9, 0), EndsAt: at(10, 0)}, existing)
		assert.Len(t, got, 1)
		assert.Equal(t, DimensionSection, got[0].Dimension)
		assert.Equal(t, "s2", got[0].Schedule.ID)
	})

	t.Run("room collision only when candidate has a room", func(t *testing.T) {
		cand := Candidate{TeacherID: "tX", SectionID: "secX", StartsAt: at(8, 0), EndsAt: at(9, 0)}
		assert.Empty(t, Detect(cand, existing))

		cand.Room = "101"
		got := Detect(cand, existing)
		assert.Len(t, got, 1)
		assert.Equal(t, DimensionRoom, got[0].Dimension)
	})

	t.Run("same schedule reported per dimension", func(t *testing.T) {
		got := Detect(Candidate{TeacherID: "t1", SectionID: "sec1", Room: "101", StartsAt: at(8, 0), EndsAt: at(9, 0), ExcludeID: "other"}, existing)
		assert.Len(t, got, 3)
		dims := []Dimension{got[0].Dimension, got[1].Dimension, got[2].Dimension}
		assert.Equal(t, []Dimension{DimensionTeacher, DimensionSection, DimensionRoom}, dims)
		for _, c := range got {
			assert.Equal(t, "s1", c.Schedule.ID)
		}
	})

	t.Run("boundary touch is not a conflict", func(t *testing.T) {
		got := Detect(Candidate{TeacherID: "t1", SectionID: "sec1", Room: "101", StartsAt: at(9, 0), EndsAt: at(10, 0)}, existing)
		assert.Empty(t, got)
	})

	t.Run("exclusion applies on every dimension", func(t *testing.T) {
		// re-checking s1's own window with its own id excluded is clean
		got := Detect(Candidate{TeacherID: "t1", SectionID: "sec1", Room: "101", StartsAt: at(8, 0), EndsAt: at(9, 0), ExcludeID: "s1"}, existing)
		assert.Empty(t, got)
	})

	t.Run("exclusion does not hide other collisions", func(t *testing.T) {
		got := Detect(Candidate{TeacherID: "t2", SectionID: "sec1", StartsAt: at(8, 0), EndsAt: at(9, 0), ExcludeID: "s1"}, existing)
		assert.Len(t, got, 1)
		assert.Equal(t, DimensionTeacher, got[0].Dimension)
		assert.Equal(t, "s2", got[0].Schedule.ID)
	})

	t.Run("no existing schedules", func(t *testing.T) {
		assert.Empty(t, Detect(Candidate{TeacherID: "t1", SectionID: "sec1", StartsAt: at(8, 0), EndsAt: at(9, 0)}, nil))
	})
}

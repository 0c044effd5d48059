package dummydb

import (
	"sync"

	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/schedule"
	"github.com/trezcool/rekodi/core/user"
)

type (
	DB struct {
		user     *userTable
		section  *sectionTable
		record   *recordTable
		schedule *scheduleTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	sectionTable struct {
		sync.RWMutex
		table map[string]*school.Section
	}

	recordTable struct {
		sync.RWMutex
		packages  map[string]*record.QuarterPackage
		approvals []record.Approval // append-only
	}

	scheduleTable struct {
		sync.RWMutex
		table map[string]*schedule.Schedule
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		section:  &sectionTable{table: make(map[string]*school.Section)},
		record:   &recordTable{packages: make(map[string]*record.QuarterPackage)},
		schedule: &scheduleTable{table: make(map[string]*schedule.Schedule)},
	}
	return db, nil
}

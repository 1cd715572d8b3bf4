// Package inmemdb provides in-memory repository implementations backing
// unit tests and local development without a running document store.
package inmemdb

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
)

type attendanceKey struct {
	schedule primitive.ObjectID
	student  primitive.ObjectID
}

// DB holds all tables behind a single lock; the cross-entity roster
// operations touch several tables per call.
type DB struct {
	mutex sync.RWMutex

	users      map[primitive.ObjectID]*user.User
	groups     map[primitive.ObjectID]*group.Group
	students   map[primitive.ObjectID]*student.Student
	parents    map[primitive.ObjectID]*parent.Parent
	updates    map[primitive.ObjectID]*update.Update
	schedules  map[primitive.ObjectID]*schedule.Schedule
	attendance map[attendanceKey]*schedule.Attendance
}

func Open() (*DB, error) {
	db := new(DB)
	db.reset()
	return db, nil
}

// Reset drops all data; used between tests.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.users = make(map[primitive.ObjectID]*user.User)
	db.groups = make(map[primitive.ObjectID]*group.Group)
	db.students = make(map[primitive.ObjectID]*student.Student)
	db.parents = make(map[primitive.ObjectID]*parent.Parent)
	db.updates = make(map[primitive.ObjectID]*update.Update)
	db.schedules = make(map[primitive.ObjectID]*schedule.Schedule)
	db.attendance = make(map[attendanceKey]*schedule.Attendance)
}

// set helpers shared by the repositories

func addToSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range set {
		if v == id {
			return set
		}
	}
	return append(set, id)
}

func removeFromSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

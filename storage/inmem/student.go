package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = primitive.NewObjectID()
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.Before(students[j].CreatedAt) })
	return students, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id primitive.ObjectID) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentsByIDs(_ context.Context, ids []primitive.ObjectID) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := repo.db.students[id]; ok {
			students = append(students, *s)
		}
	}
	return students, nil
}

func (repo *studentRepository) FilterStudentsByGroup(_ context.Context, groupID primitive.ObjectID) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if s.Group != nil && *s.Group == groupID {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.Before(students[j].CreatedAt) })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.FirstName = s.FirstName
	orig.LastName = s.LastName
	orig.Age = s.Age
	orig.UpdatedAt = s.UpdatedAt
	return *orig, nil
}

func (repo *studentRepository) SetStudentGroup(_ context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	s.Group = groupID
	return nil
}

func (repo *studentRepository) SetStudentParent(_ context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, parentName, parentEmail string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	s.Parent = parentID
	s.ParentName = parentName
	s.ParentEmail = parentEmail
	return nil
}

func (repo *studentRepository) CountStudentsByGroupAndParent(_ context.Context, groupID, parentID primitive.ObjectID) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int64
	for _, s := range repo.db.students {
		if s.Group != nil && *s.Group == groupID && s.Parent != nil && *s.Parent == parentID {
			n++
		}
	}
	return n, nil
}

func (repo *studentRepository) CountStudentsByParent(_ context.Context, parentID primitive.ObjectID) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int64
	for _, s := range repo.db.students {
		if s.Parent != nil && *s.Parent == parentID {
			n++
		}
	}
	return n, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}

package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/storage/inmem"
)

// PrepareDB hands out a clean in-memory store.
func PrepareDB(t *testing.T) *inmemdb.DB {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	groups ...primitive.ObjectID,
) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		Groups:    groups,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
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

func CreateGroup(t *testing.T, repo group.Repository, name string, teachers ...primitive.ObjectID) group.Group {
	now := time.Now().UTC()
	g, err := repo.CreateGroup(context.Background(), group.Group{
		Name:      name,
		Teachers:  teachers,
		Students:  []primitive.ObjectID{},
		Parents:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}

func CreateStudent(t *testing.T, repo student.Repository, firstName, lastName string) student.Student {
	now := time.Now().UTC()
	s, err := repo.CreateStudent(context.Background(), student.Student{
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateParent(t *testing.T, repo parent.Repository, firstName, lastName, email string) parent.Parent {
	now := time.Now().UTC()
	p, err := repo.CreateParent(context.Background(), parent.Parent{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Students:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateParent() failed: %v", err)
	}
	return p
}

// Logger is a no-op core.Logger for tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (Logger) Enable(bool) {}
func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{}) {}
func (Logger) Warn(string, ...interface{}) {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/storage/inmem"
	"github.com/tantsukool/backend/tests"
)

func newService(t *testing.T) (*user.Service, user.Repository) {
	db := testutil.PrepareDB(t)
	repo := inmemdb.NewUserRepository(db)
	return user.NewService(repo, testutil.Logger{}), repo
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want a validation error, got %v", err)
	flds := make(map[string]string, len(vErr.Fields))
	for _, fErr := range vErr.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

func TestNewUser_Validate(t *testing.T) {
	svc, repo := newService(t)
	testutil.CreateUser(t, repo, "Mari Mets", "marimets", "mari@tantsukool.ee", "", user.TeacherRoles, true)

	valid := func() user.NewUser {
		return user.NewUser{
			Name:            "Kati Saar",
			Username:        "katisaar",
			Email:           "kati@tantsukool.ee",
			Password:        "Tantsukool!23",
			PasswordConfirm: "Tantsukool!23",
			Roles:           user.TeacherRoles,
		}
	}

	t.Run("ok", func(t *testing.T) {
		nu := valid()
		require.NoError(t, nu.Validate(svc))
	})

	t.Run("normalizes username and email", func(t *testing.T) {
		nu := valid()
		nu.Username = "  KatiSaar "
		nu.Email = "Kati@Tantsukool.EE"
		require.NoError(t, nu.Validate(svc))
		assert.Equal(t, "katisaar", nu.Username)
		assert.Equal(t, "kati@tantsukool.ee", nu.Email)
	})

	t.Run("taken username", func(t *testing.T) {
		nu := valid()
		nu.Username = "marimets"
		flds := fieldErrors(t, nu.Validate(svc))
		assert.Equal(t, user.ErrUsernameExists.Error(), flds["username"])
	})

	t.Run("taken email", func(t *testing.T) {
		nu := valid()
		nu.Email = "mari@tantsukool.ee"
		flds := fieldErrors(t, nu.Validate(svc))
		assert.Equal(t, user.ErrEmailExists.Error(), flds["email"])
	})

	t.Run("unknown role", func(t *testing.T) {
		nu := valid()
		nu.Roles = []string{"janitor:"}
		assert.Error(t, nu.Validate(svc))
	})

	t.Run("password similar to username", func(t *testing.T) {
		nu := valid()
		nu.Password = "Katisaar1!"
		nu.PasswordConfirm = nu.Password
		assert.Error(t, nu.Validate(svc))
	})

	t.Run("password all numeric", func(t *testing.T) {
		nu := valid()
		nu.Password = "1234567890"
		nu.PasswordConfirm = nu.Password
		assert.Error(t, nu.Validate(svc))
	})
}

func Test_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	groupID := "60b8d295f1d2c916c4bb0001"
	usr, err := svc.Create(ctx, user.NewUser{
		Name:            "Mari Mets",
		Username:        "marimets",
		Email:           "mari@tantsukool.ee",
		Password:        "Tantsukool!23",
		PasswordConfirm: "Tantsukool!23",
		Roles:           user.TeacherRoles,
		GroupIDs:        []string{groupID},
	})
	require.NoError(t, err)
	assert.False(t, usr.ID.IsZero())
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsTeacher())
	assert.False(t, usr.IsAdmin())
	require.Len(t, usr.Groups, 1)
	assert.Equal(t, groupID, usr.Groups[0].Hex())
	assert.NoError(t, usr.CheckPassword("Tantsukool!23"))
}

func Test_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	testutil.CreateUser(t, repo, "Mari Mets", "marimets", "mari@tantsukool.ee", "Tantsukool!23", user.TeacherRoles, true)
	testutil.CreateUser(t, repo, "Sleeper", "sleeper1", "sleeper@tantsukool.ee", "Tantsukool!23", nil, false)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost", "Tantsukool!23")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("inactive account reads as missing", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "sleeper1", "Tantsukool!23")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "marimets", "nope")
		assert.Equal(t, bcrypt.ErrMismatchedHashAndPassword, err)
	})

	t.Run("with username", func(t *testing.T) {
		usr, err := svc.Authenticate(ctx, "MariMets", "Tantsukool!23")
		require.NoError(t, err)
		assert.Equal(t, "marimets", usr.Username)
		assert.False(t, usr.LastLogin.IsZero())
	})

	t.Run("with email", func(t *testing.T) {
		usr, err := svc.Authenticate(ctx, "Mari@Tantsukool.EE", "Tantsukool!23")
		require.NoError(t, err)
		assert.Equal(t, "marimets", usr.Username)
	})
}

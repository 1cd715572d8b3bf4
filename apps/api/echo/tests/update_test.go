package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/tests"
)

func Test_updateApi_comment(t *testing.T) {
	app := setup(t)
	ctxT := context.Background()

	g1 := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	g2 := testutil.CreateGroup(t, groupRepo, "Ballet Juniors")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	teacher := testutil.CreateUser(t, usrRepo, "Mari Mets", "marimets", "mari@tantsukool.ee", "", user.TeacherRoles, true, g1.ID)
	nobody := testutil.CreateUser(t, usrRepo, "Nobody", "nobody12", "nobody@tantsukool.ee", "", nil, true)

	mine, err := updateRepo.CreateUpdate(ctxT, update.Update{Group: g1.ID, Author: admin.ID, AuthorName: admin.Name, Content: "Recital on Friday"})
	require.NoError(t, err)
	other, err := updateRepo.CreateUpdate(ctxT, update.Update{Group: g2.ID, Author: admin.ID, AuthorName: admin.Name, Content: "New barre exercises"})
	require.NoError(t, err)

	teacherToken := getToken(t, teacher)
	body := marchallObj(t, update.NewComment{Content: "Noted, thanks!"})

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/updates/" + mine.ID.Hex() + "/comments", body: body,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "staff required", method: http.MethodPost, path: "/v1/updates/" + mine.ID.Hex() + "/comments", body: body,
			token: getToken(t, nobody), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "other group's update reads as missing", path: "/v1/updates/" + other.ID.Hex(), token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errPathNotFound),
		},
		{
			name: "commenting on another group's update fails the same way", method: http.MethodPost,
			path: "/v1/updates/" + other.ID.Hex() + "/comments", body: body, token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errPathNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("teacher comments on own group's update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/updates/"+mine.ID.Hex()+"/comments", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var u update.Update
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
		require.Len(t, u.Comments, 1)
		assert.Equal(t, "Noted, thanks!", u.Comments[0].Content)
		assert.Equal(t, teacher.Name, u.Comments[0].AuthorName)
	})

	t.Run("admin comments anywhere", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/updates/"+other.ID.Hex()+"/comments", getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var u update.Update
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
		require.Len(t, u.Comments, 1)
		assert.Equal(t, admin.Name, u.Comments[0].AuthorName)
	})
}

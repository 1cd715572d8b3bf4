package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/apps/api/echo"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/tests"
)

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)
	ctxT := context.Background()

	g1 := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	g2 := testutil.CreateGroup(t, groupRepo, "Ballet Juniors")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	teacher := testutil.CreateUser(t, usrRepo, "Mari Mets", "marimets", "mari@tantsukool.ee", "", user.TeacherRoles, true, g1.ID)

	mine, err := rosterSvc.Enroll(ctxT, student.NewStudent{FirstName: "Liisa", LastName: "Kask", GroupID: g1.ID.Hex()})
	require.NoError(t, err)
	other, err := rosterSvc.Enroll(ctxT, student.NewStudent{FirstName: "Jüri", LastName: "Tamm", GroupID: g2.ID.Hex()})
	require.NoError(t, err)
	unassigned := testutil.CreateStudent(t, studentRepo, "Kati", "Saar")

	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/students/" + mine.ID.Hex(),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "teacher reads own group's student", path: "/v1/students/" + mine.ID.Hex(), token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, mine),
		},
		{
			name: "other group's student reads as missing", path: "/v1/students/" + other.ID.Hex(), token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errPathNotFound),
		},
		{
			name: "unassigned student reads as missing", path: "/v1/students/" + unassigned.ID.Hex(), token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errPathNotFound),
		},
		{
			name: "admin reads anyone", path: "/v1/students/" + other.ID.Hex(), token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_attachDetach(t *testing.T) {
	app := setup(t)

	g1 := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	g2 := testutil.CreateGroup(t, groupRepo, "Ballet Juniors")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	teacher := testutil.CreateUser(t, usrRepo, "Mari Mets", "marimets", "mari@tantsukool.ee", "", user.TeacherRoles, true, g1.ID)
	s := testutil.CreateStudent(t, studentRepo, "Liisa", "Kask")

	adminToken := getToken(t, admin)
	attachBody := func(gid string) []byte {
		return marchallObj(t, echoapi.AttachRequest{GroupID: gid})
	}

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+s.ID.Hex()+"/group", getToken(t, teacher), attachBody(g1.ID.Hex()))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("attach", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+s.ID.Hex()+"/group", adminToken, attachBody(g1.ID.Hex()))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.NotNil(t, got.Group)
		assert.Equal(t, g1.ID, *got.Group)
	})

	t.Run("moving to another group detaches from the old one", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+s.ID.Hex()+"/group", adminToken, attachBody(g2.ID.Hex()))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		old, err := groupRepo.GetGroupByID(context.Background(), g1.ID)
		require.NoError(t, err)
		assert.NotContains(t, old.Students, s.ID)
	})

	t.Run("unknown group fails", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+s.ID.Hex()+"/group", adminToken, attachBody(primitive.NewObjectID().Hex()))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("detach", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/students/"+s.ID.Hex()+"/group", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Nil(t, got.Group)
	})
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)

	g := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	s := testutil.CreateStudent(t, studentRepo, "Liisa", "Kask")

	adminToken := getToken(t, admin)

	t.Run("malformed group id fails validation", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{GroupID: "nope"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+s.ID.Hex(), adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		ok, err := jsonBytesEqual(t, rec.Body.Bytes(), marchallObj(t, map[string]string{"group_id": "invalid id"}))
		require.NoError(t, err)
		assert.True(t, ok, rec.Body.String())
	})

	t.Run("valid group id moves the student", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{GroupID: g.ID.Hex()})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+s.ID.Hex(), adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.NotNil(t, got.Group)
		assert.Equal(t, g.ID, *got.Group)
	})
}

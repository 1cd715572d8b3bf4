package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/tests"
)

func Test_groupApi_access(t *testing.T) {
	app := setup(t)

	g1 := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	g2 := testutil.CreateGroup(t, groupRepo, "Ballet Juniors")

	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	teacher := testutil.CreateUser(t, usrRepo, "Mari Mets", "marimets", "mari@tantsukool.ee", "", user.TeacherRoles, true, g1.ID)
	nobody := testutil.CreateUser(t, usrRepo, "Nobody", "nobody12", "nobody@tantsukool.ee", "", nil, true)

	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/groups",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Staff required", path: "/v1/groups", token: getToken(t, nobody),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "teachers only list their own groups", path: "/v1/groups", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, g1),
		},
		{
			name: "admins list all groups", path: "/v1/groups", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, g1, g2),
		},
		{
			name: "teachers cannot reach other groups", path: "/v1/groups/" + g2.ID.Hex(), token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "malformed group id", path: "/v1/groups/not-a-hex-id", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errPathNotFound),
		},
		{
			name: "unknown group id", path: "/v1/groups/" + primitive.NewObjectID().Hex(), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errGroupNotFound),
		},
		{
			name: "Admin required to create", method: http.MethodPost, path: "/v1/groups", token: teacherToken,
			body:     marchallObj(t, group.NewGroup{Name: "Breakdance Crew"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "Admin required for the bulk editor", method: http.MethodPatch,
			path: "/v1/groups/" + g1.ID.Hex() + "/full", token: teacherToken,
			body:     marchallObj(t, roster.FullEdit{Name: "Renamed"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_groupApi_enroll(t *testing.T) {
	app := setup(t)
	g := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	adminToken := getToken(t, admin)

	body := marchallObj(t, student.NewStudent{
		FirstName:   "Liisa",
		LastName:    "Kask",
		Age:         9,
		ParentEmail: "Anna.Kask@Example.com",
		ParentName:  "Anna Kask",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/groups/"+g.ID.Hex()+"/students", adminToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var s student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.NotNil(t, s.Group)
	assert.Equal(t, g.ID, *s.Group)
	assert.NotNil(t, s.Parent)
	assert.Equal(t, "anna.kask@example.com", s.ParentEmail)

	req, rec = newAuthRequest(http.MethodGet, "/v1/groups/"+g.ID.Hex()+"/students", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var students []student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 1)
	assert.Equal(t, s.ID, students[0].ID)
}

func Test_groupApi_fullEdit(t *testing.T) {
	app := setup(t)
	ctxT := context.Background()

	g := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)
	adminToken := getToken(t, admin)

	s1, err := rosterSvc.Enroll(ctxT, student.NewStudent{
		FirstName: "Liisa", LastName: "Kask", GroupID: g.ID.Hex(),
		ParentEmail: "anna.kask@example.com", ParentName: "Anna Kask",
	})
	require.NoError(t, err)
	s2, err := rosterSvc.Enroll(ctxT, student.NewStudent{
		FirstName: "Jüri", LastName: "Tamm", GroupID: g.ID.Hex(),
		ParentEmail: "priit.tamm@example.com", ParentName: "Priit Tamm",
	})
	require.NoError(t, err)

	t.Run("invalid student id fails", func(t *testing.T) {
		body := marchallObj(t, roster.FullEdit{Name: "Renamed", StudentIDs: []string{"not-a-hex-id"}})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/groups/"+g.ID.Hex()+"/full", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("replaces the roster in one request", func(t *testing.T) {
		body := marchallObj(t, roster.FullEdit{
			Name:       "Renamed",
			Location:   "Studio 2",
			StudentIDs: []string{s1.ID.Hex()},
			Parents:    []roster.ParentUpsert{{Email: "anna.kask@example.com", Name: "Anna Kask"}},
		})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/groups/"+g.ID.Hex()+"/full", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var populated group.Populated
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &populated))
		assert.Equal(t, "Renamed", populated.Name)
		assert.Equal(t, "Studio 2", populated.Location)
		assert.Equal(t, []primitive.ObjectID{s1.ID}, populated.Students)
		require.Len(t, populated.ParentRecords, 1)
		assert.Equal(t, "anna.kask@example.com", populated.ParentRecords[0].Email)

		// the dropped student is detached, not deleted
		dropped, err := studentRepo.GetStudentByID(ctxT, s2.ID)
		require.NoError(t, err)
		assert.Nil(t, dropped.Group)
	})
}

func Test_groupApi_rosterCSV(t *testing.T) {
	app := setup(t)
	ctxT := context.Background()

	g := testutil.CreateGroup(t, groupRepo, "Hip-Hop Minis")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "theadmin", "admin@tantsukool.ee", "", user.AdminRoles, true)

	_, err := rosterSvc.Enroll(ctxT, student.NewStudent{
		FirstName: "Liisa", LastName: "Kask", GroupID: g.ID.Hex(),
		ParentEmail: "anna.kask@example.com", ParentName: "Anna Kask",
	})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+g.ID.Hex()+"/roster.csv", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster.csv")
	assert.Contains(t, rec.Body.String(), "first_name,last_name,age,parent_name,parent_email")
	assert.Contains(t, rec.Body.String(), "Liisa,Kask")
}

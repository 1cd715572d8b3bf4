package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/tantsukool/backend/apps/api/echo"
	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/services/email"
	"github.com/tantsukool/backend/storage/inmem"
	"github.com/tantsukool/backend/tests"
)

var (
	usrRepo     user.Repository
	groupRepo   group.Repository
	studentRepo student.Repository
	parentRepo  parent.Repository
	updateRepo  update.Repository

	rosterSvc *roster.Service

	errMissingToken   = httpErr{Error: "missing or malformed jwt"}
	errPermDenied     = httpErr{Error: "permission denied"}
	errPathNotFound   = httpErr{Error: "not found"}
	errGroupNotFound  = httpErr{Error: "group not found"}
	errHttpAuthFailed = httpErr{Error: "authentication failed"}
)

func setup(t *testing.T) Server {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = inmemdb.NewUserRepository(db)
	groupRepo = inmemdb.NewGroupRepository(db)
	studentRepo = inmemdb.NewStudentRepository(db)
	parentRepo = inmemdb.NewParentRepository(db)
	updateRepo = inmemdb.NewUpdateRepository(db)
	schedRepo := inmemdb.NewScheduleRepository(db)

	// set up services
	logger := testutil.Logger{}
	mailSvc := emailsvc.NewConsoleServiceMock()
	rosterSvc = roster.NewService(groupRepo, studentRepo, parentRepo, updateRepo, schedRepo, usrRepo, logger)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			UserSvc:        user.NewService(usrRepo, logger),
			GroupSvc:       group.NewService(groupRepo, studentRepo, parentRepo, logger),
			StudentSvc:     student.NewService(studentRepo),
			ParentSvc:      parent.NewService(parentRepo),
			RosterSvc:      rosterSvc,
			UpdateSvc:      update.NewService(updateRepo, groupRepo, parentRepo, mailSvc, logger),
			ScheduleSvc:    schedule.NewService(schedRepo, groupRepo, studentRepo),
			Logger:         logger,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

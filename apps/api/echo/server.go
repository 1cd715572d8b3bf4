package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc     *user.Service
		GroupSvc    *group.Service
		StudentSvc  *student.Service
		ParentSvc   *parent.Service
		RosterSvc   *roster.Service
		UpdateSvc   *update.Service
		ScheduleSvc *schedule.Service
		FileStore   core.FileStorage
		Logger      core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)
	s.app.Static("/uploads", core.Conf.Uploads.Dir)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerGroupAPI(v1, jwt, s.opts)
	registerStudentAPI(v1, jwt, s.opts)
	registerParentAPI(v1, jwt, s.opts.ParentSvc)
	registerUpdateAPI(v1, jwt, s.opts)
	registerScheduleAPI(v1, jwt, s.opts)
	registerUploadAPI(v1, jwt, s.opts.FileStore)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// signalShutdown stops the server when a store integrity error is caught.
func (s *server) signalShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.Shutdown(ctx); err != nil {
		s.app.Logger.Error(err)
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Tantsukool API!")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tantsukool/backend/apps/api/echo"
	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/services/email"
	"github.com/tantsukool/backend/services/filestore"
	"github.com/tantsukool/backend/services/logger"
	"github.com/tantsukool/backend/storage/mongodb"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!(core.Conf.Debug || core.Conf.TestMode))

	if err := run(logger); err != nil {
		logger.Fatal("starting api", err)
	}
}

func run(logger core.Logger) error {
	db, err := mongodb.Open(core.Conf)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	// repositories
	usrRepo := mongodb.NewUserRepository(db)
	groupRepo := mongodb.NewGroupRepository(db)
	studentRepo := mongodb.NewStudentRepository(db)
	parentRepo := mongodb.NewParentRepository(db)
	updateRepo := mongodb.NewUpdateRepository(db)
	scheduleRepo := mongodb.NewScheduleRepository(db)

	// services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	fileStore, err := filestore.NewLocalStorage()
	if err != nil {
		return err
	}

	usrSvc := user.NewService(usrRepo, logger)
	groupSvc := group.NewService(groupRepo, studentRepo, parentRepo, logger)
	studentSvc := student.NewService(studentRepo)
	parentSvc := parent.NewService(parentRepo)
	rosterSvc := roster.NewService(groupRepo, studentRepo, parentRepo, updateRepo, scheduleRepo, usrRepo, logger)
	updateSvc := update.NewService(updateRepo, groupRepo, parentRepo, mailSvc, logger)
	scheduleSvc := schedule.NewService(scheduleRepo, groupRepo, studentRepo)

	app := echoapi.NewServer(&echoapi.Options{
		Address:     core.Conf.Server.Addr,
		UserSvc:     usrSvc,
		GroupSvc:    groupSvc,
		StudentSvc:  studentSvc,
		ParentSvc:   parentSvc,
		RosterSvc:   rosterSvc,
		UpdateSvc:   updateSvc,
		ScheduleSvc: scheduleSvc,
		FileStore:   fileStore,
		Logger:      logger,
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go app.Start()

	<-shutdown
	logger.Info("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}

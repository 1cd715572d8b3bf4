package main

import (
	"log"
	"os"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/services/logger"
	"github.com/tantsukool/backend/storage/mongodb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up the document store
	db, err := mongodb.Open(core.Conf)
	errAndDie(err)

	appLogger := logsvc.NewRollbarLogger(logger, core.Conf)
	appLogger.Enable(false)

	usrRepo := mongodb.NewUserRepository(db)
	groupRepo := mongodb.NewGroupRepository(db)
	studentRepo := mongodb.NewStudentRepository(db)
	parentRepo := mongodb.NewParentRepository(db)
	updateRepo := mongodb.NewUpdateRepository(db)
	scheduleRepo := mongodb.NewScheduleRepository(db)

	// start CLI
	cli := commandLine{
		db:        db,
		usrRepo:   usrRepo,
		usrSvc:    user.NewService(usrRepo, appLogger),
		groupSvc:  group.NewService(groupRepo, studentRepo, parentRepo, appLogger),
		rosterSvc: roster.NewService(groupRepo, studentRepo, parentRepo, updateRepo, scheduleRepo, usrRepo, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

package main

import (
	"context"
	"errors"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/user"
)

// seed loads a small demo dataset through the regular services so the
// roster bookkeeping (group/student/parent links) is populated for real.
func (cli *commandLine) seed() error {
	if core.Conf.Env != "DEV" {
		return errors.New("seed is only available in DEV")
	}
	ctx := context.Background()

	teacher, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:            "Mari Mets",
		Username:        "marimets",
		Email:           "mari.mets@tantsukool.ee",
		Password:        "Tantsukool!23",
		PasswordConfirm: "Tantsukool!23",
		Roles:           []string{user.RoleTeacher},
	})
	if err != nil {
		return err
	}

	groups := []group.NewGroup{
		{Name: "Hip-Hop Minis", Location: "Tallinn, Saal A", TeacherIDs: []string{teacher.ID.Hex()}},
		{Name: "Ballet Juniors", Location: "Tallinn, Saal B"},
	}
	students := [][]student.NewStudent{
		{
			{FirstName: "Liisa", LastName: "Kask", Age: 8, ParentEmail: "anna.kask@example.com", ParentName: "Anna Kask"},
			{FirstName: "Marta", LastName: "Kask", Age: 10, ParentEmail: "anna.kask@example.com"},
		},
		{
			{FirstName: "Jüri", LastName: "Tamm", Age: 9, ParentEmail: "priit.tamm@example.com", ParentName: "Priit Tamm"},
		},
	}

	for i, ng := range groups {
		g, err := cli.groupSvc.Create(ctx, ng)
		if err != nil {
			return err
		}
		for _, ns := range students[i] {
			ns.GroupID = g.ID.Hex()
			if _, err := cli.rosterSvc.Enroll(ctx, ns); err != nil {
				return err
			}
		}
	}

	logger.Println("demo data loaded")
	return nil
}

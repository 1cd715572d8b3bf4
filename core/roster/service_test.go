package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/storage/inmem"
	"github.com/tantsukool/backend/tests"
)

type fixture struct {
	svc       *Service
	groups    group.Repository
	students  student.Repository
	parents   parent.Repository
	updates   update.Repository
	schedules schedule.Repository
	users     user.Repository
}

func setup(t *testing.T) *fixture {
	db := testutil.PrepareDB(t)
	f := &fixture{
		groups:    inmemdb.NewGroupRepository(db),
		students:  inmemdb.NewStudentRepository(db),
		parents:   inmemdb.NewParentRepository(db),
		updates:   inmemdb.NewUpdateRepository(db),
		schedules: inmemdb.NewScheduleRepository(db),
		users:     inmemdb.NewUserRepository(db),
	}
	f.svc = NewService(f.groups, f.students, f.parents, f.updates, f.schedules, f.users, testutil.Logger{})
	return f
}

func (f *fixture) group(t *testing.T, id primitive.ObjectID) group.Group {
	g, err := f.groups.GetGroupByID(context.Background(), id)
	require.NoError(t, err)
	return g
}

func (f *fixture) student(t *testing.T, id primitive.ObjectID) student.Student {
	s, err := f.students.GetStudentByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) parent(t *testing.T, id primitive.ObjectID) parent.Parent {
	p, err := f.parents.GetParentByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// checkConsistent asserts the cross-reference invariants between the group,
// its students and their parents.
func (f *fixture) checkConsistent(t *testing.T, groupID primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	g := f.group(t, groupID)

	wantParents := make(map[primitive.ObjectID]bool)
	for _, sid := range g.Students {
		s := f.student(t, sid)
		require.NotNil(t, s.Group, "student %s in group set but has no group", sid.Hex())
		assert.Equal(t, groupID, *s.Group)
		if s.Parent != nil {
			wantParents[*s.Parent] = true
			p := f.parent(t, *s.Parent)
			assert.True(t, p.HasStudent(sid), "parent %s does not list student %s", p.Email, sid.Hex())
		}
	}
	for pid := range wantParents {
		assert.True(t, g.HasParent(pid), "group misses parent %s", pid.Hex())
	}

	// no group may reference a parent no member student references
	groups, err := f.groups.QueryAllGroups(ctx)
	require.NoError(t, err)
	for _, g := range groups {
		for _, pid := range g.Parents {
			n, err := f.students.CountStudentsByGroupAndParent(ctx, g.ID, pid)
			require.NoError(t, err)
			assert.True(t, n > 0, "group %s references unused parent %s", g.Name, pid.Hex())
		}
	}
}

func Test_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groups, "Hip-Hop Minis")

	s, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName:   "Liisa",
		LastName:    "Kask",
		Age:         8,
		GroupID:     g.ID.Hex(),
		ParentEmail: "Anna.Kask@Example.com",
		ParentName:  "  Anna   Kask ",
	})
	require.NoError(t, err)

	require.NotNil(t, s.Group)
	assert.Equal(t, g.ID, *s.Group)
	require.NotNil(t, s.Parent)
	assert.Equal(t, "Anna Kask", s.ParentName)
	assert.Equal(t, "anna.kask@example.com", s.ParentEmail)

	p := f.parent(t, *s.Parent)
	assert.Equal(t, "Anna", p.FirstName)
	assert.Equal(t, "Kask", p.LastName)
	assert.Equal(t, "anna.kask@example.com", p.Email)
	assert.True(t, p.HasStudent(s.ID))

	f.checkConsistent(t, g.ID)

	t.Run("unknown group fails before any write", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, student.NewStudent{
			FirstName: "Ghost",
			GroupID:   primitive.NewObjectID().Hex(),
		})
		assert.Equal(t, group.ErrNotFound, err)
		students, err := f.students.QueryAllStudents(ctx)
		require.NoError(t, err)
		assert.Len(t, students, 1)
	})
}

func Test_AttachStudentToGroup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	gA := testutil.CreateGroup(t, f.groups, "Group A")
	gB := testutil.CreateGroup(t, f.groups, "Group B")

	s, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName:   "Jüri",
		GroupID:     gA.ID.Hex(),
		ParentEmail: "priit.tamm@example.com",
		ParentName:  "Priit Tamm",
	})
	require.NoError(t, err)

	t.Run("attach is idempotent", func(t *testing.T) {
		require.NoError(t, f.svc.AttachStudentToGroup(ctx, s.ID, gA.ID))
		require.NoError(t, f.svc.AttachStudentToGroup(ctx, s.ID, gA.ID))
		g := f.group(t, gA.ID)
		assert.Len(t, g.Students, 1)
		assert.Len(t, g.Parents, 1)
		f.checkConsistent(t, gA.ID)
	})

	t.Run("move to another group", func(t *testing.T) {
		require.NoError(t, f.svc.AttachStudentToGroup(ctx, s.ID, gB.ID))

		a, b := f.group(t, gA.ID), f.group(t, gB.ID)
		assert.Empty(t, a.Students)
		assert.Empty(t, a.Parents, "parent must be cleaned out of the old group")
		assert.True(t, b.HasStudent(s.ID))
		assert.Len(t, b.Parents, 1)

		moved := f.student(t, s.ID)
		require.NotNil(t, moved.Group)
		assert.Equal(t, gB.ID, *moved.Group)
		f.checkConsistent(t, gA.ID)
		f.checkConsistent(t, gB.ID)
	})
}

func Test_DetachStudentFromGroup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groups, "Group A")

	s1, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Liisa", GroupID: g.ID.Hex(), ParentEmail: "anna@example.com", ParentName: "Anna Kask",
	})
	require.NoError(t, err)
	s2, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Marta", GroupID: g.ID.Hex(), ParentEmail: "anna@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, *s1.Parent, *s2.Parent, "same email must resolve to the same parent")
	pid := *s1.Parent

	t.Run("shared parent stays while a sibling remains", func(t *testing.T) {
		require.NoError(t, f.svc.DetachStudentFromGroup(ctx, s1.ID))

		got := f.group(t, g.ID)
		assert.False(t, got.HasStudent(s1.ID))
		assert.True(t, got.HasParent(pid), "parent still referenced by the sibling")
		assert.Nil(t, f.student(t, s1.ID).Group)
		f.checkConsistent(t, g.ID)
	})

	t.Run("last sibling leaving pulls the parent", func(t *testing.T) {
		require.NoError(t, f.svc.DetachStudentFromGroup(ctx, s2.ID))

		got := f.group(t, g.ID)
		assert.Empty(t, got.Students)
		assert.Empty(t, got.Parents)
		// the parent record itself survives: both students still reference it
		p := f.parent(t, pid)
		assert.True(t, p.HasStudent(s1.ID))
		assert.True(t, p.HasStudent(s2.ID))
	})

	t.Run("detaching an unassigned student is a no-op", func(t *testing.T) {
		require.NoError(t, f.svc.DetachStudentFromGroup(ctx, s1.ID))
	})
}

func Test_ResolveOrCreateParent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("email is required", func(t *testing.T) {
		_, err := f.svc.ResolveOrCreateParent(ctx, "   ", "Anna")
		_, ok := err.(*core.ValidationError)
		require.True(t, ok, "want a validation error, got %v", err)
	})

	t.Run("created with placeholder first name", func(t *testing.T) {
		p, err := f.svc.ResolveOrCreateParent(ctx, "info@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultParentFirstName, p.FirstName)
		assert.Equal(t, "", p.LastName)
	})

	t.Run("email casing and spaces are unified", func(t *testing.T) {
		p1, err := f.svc.ResolveOrCreateParent(ctx, "Anna.Kask@Example.com", "Anna Kask")
		require.NoError(t, err)
		p2, err := f.svc.ResolveOrCreateParent(ctx, "  anna.kask@example.com ", "")
		require.NoError(t, err)
		assert.Equal(t, p1.ID, p2.ID)
		assert.Equal(t, "anna.kask@example.com", p2.Email)
	})

	t.Run("name parses into first and last", func(t *testing.T) {
		p, err := f.svc.ResolveOrCreateParent(ctx, "tamm@example.com", "  Jüri   Tamm  ")
		require.NoError(t, err)
		assert.Equal(t, "Jüri", p.FirstName)
		assert.Equal(t, "Tamm", p.LastName)
	})

	t.Run("empty name does not overwrite a real one", func(t *testing.T) {
		p, err := f.svc.ResolveOrCreateParent(ctx, "tamm@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "Jüri", p.FirstName)
	})

	t.Run("a different name updates the record", func(t *testing.T) {
		p, err := f.svc.ResolveOrCreateParent(ctx, "tamm@example.com", "Jüri Tamm-Kask")
		require.NoError(t, err)
		assert.Equal(t, "Tamm-Kask", p.LastName)
	})
}

func Test_ChangeParent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groups, "Group A")

	s, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Liisa", GroupID: g.ID.Hex(), ParentEmail: "old@example.com", ParentName: "Old Parent",
	})
	require.NoError(t, err)
	oldPID := *s.Parent

	s, err = f.svc.ChangeParent(ctx, s.ID, "new@example.com", "New Parent")
	require.NoError(t, err)

	require.NotNil(t, s.Parent)
	assert.NotEqual(t, oldPID, *s.Parent)
	assert.Equal(t, "New Parent", s.ParentName)
	assert.Equal(t, "new@example.com", s.ParentEmail)

	got := f.group(t, g.ID)
	assert.True(t, got.HasParent(*s.Parent))
	assert.False(t, got.HasParent(oldPID))

	// old parent was orphaned and deleted
	_, err = f.parents.GetParentByID(ctx, oldPID)
	assert.Equal(t, parent.ErrNotFound, err)
	f.checkConsistent(t, g.ID)
}

func Test_BulkReplaceRoster(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	gA := testutil.CreateGroup(t, f.groups, "Group A")
	gB := testutil.CreateGroup(t, f.groups, "Group B")

	s1, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Liisa", GroupID: gA.ID.Hex(), ParentEmail: "p1@example.com", ParentName: "P One",
	})
	require.NoError(t, err)
	s2, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Marta", GroupID: gA.ID.Hex(), ParentEmail: "p1@example.com",
	})
	require.NoError(t, err)
	s3, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Jüri", GroupID: gB.ID.Hex(), ParentEmail: "p3@example.com", ParentName: "P Three",
	})
	require.NoError(t, err)
	p1 := *s1.Parent

	t.Run("invalid id fails fast without mutations", func(t *testing.T) {
		_, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{"not-a-hex-id"}, nil)
		_, ok := err.(*core.ValidationError)
		require.True(t, ok, "want a validation error, got %v", err)
		assert.Len(t, f.group(t, gA.ID).Students, 2)
	})

	t.Run("unknown id fails fast without mutations", func(t *testing.T) {
		_, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{primitive.NewObjectID().Hex()}, nil)
		_, ok := err.(*core.ValidationError)
		require.True(t, ok, "want a validation error, got %v", err)
		assert.Len(t, f.group(t, gA.ID).Students, 2)
	})

	t.Run("replace keeps the shared parent while a member remains", func(t *testing.T) {
		g, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{s2.ID.Hex()}, nil)
		require.NoError(t, err)

		assert.False(t, g.HasStudent(s1.ID))
		assert.True(t, g.HasStudent(s2.ID))
		assert.True(t, g.HasParent(p1), "p1 still referenced via s2")
		assert.Nil(t, f.student(t, s1.ID).Group)
		f.checkConsistent(t, gA.ID)
	})

	t.Run("replace steals a student from another group", func(t *testing.T) {
		g, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{s2.ID.Hex(), s3.ID.Hex()}, nil)
		require.NoError(t, err)

		assert.True(t, g.HasStudent(s3.ID))
		b := f.group(t, gB.ID)
		assert.Empty(t, b.Students)
		assert.Empty(t, b.Parents)
		f.checkConsistent(t, gA.ID)
		f.checkConsistent(t, gB.ID)
	})

	t.Run("replay converges", func(t *testing.T) {
		g1, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{s2.ID.Hex(), s3.ID.Hex()}, nil)
		require.NoError(t, err)
		g2, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{s2.ID.Hex(), s3.ID.Hex()}, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, g1.Students, g2.Students)
		assert.ElementsMatch(t, g1.Parents, g2.Parents)
	})

	t.Run("parent payload upserts into the group", func(t *testing.T) {
		g, err := f.svc.BulkReplaceRoster(ctx, gA.ID, []string{s2.ID.Hex()}, []ParentUpsert{
			{Email: "Extra@Example.com", Name: "Extra Parent"},
		})
		require.NoError(t, err)

		extra, err := f.parents.GetParentByEmail(ctx, "extra@example.com")
		require.NoError(t, err)
		assert.True(t, g.HasParent(extra.ID))
	})

	t.Run("empty replace clears members but keeps referenced parent records", func(t *testing.T) {
		g, err := f.svc.BulkReplaceRoster(ctx, gA.ID, nil, nil)
		require.NoError(t, err)

		assert.Empty(t, g.Students)
		assert.Empty(t, g.Parents)
		// p1 is still referenced by s1 and s2 and must survive
		_, err = f.parents.GetParentByID(ctx, p1)
		assert.NoError(t, err)
		// the payload-only parent of the previous edit is orphaned and gone
		_, err = f.parents.GetParentByEmail(ctx, "extra@example.com")
		assert.Equal(t, parent.ErrNotFound, err)
	})
}

func Test_DeleteStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groups, "Group A")

	s1, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Liisa", GroupID: g.ID.Hex(), ParentEmail: "anna@example.com", ParentName: "Anna Kask",
	})
	require.NoError(t, err)
	s2, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Marta", GroupID: g.ID.Hex(), ParentEmail: "anna@example.com",
	})
	require.NoError(t, err)
	pid := *s1.Parent

	require.NoError(t, f.svc.DeleteStudents(ctx, s1.ID))

	_, err = f.students.GetStudentByID(ctx, s1.ID)
	assert.Equal(t, student.ErrNotFound, err)
	p := f.parent(t, pid)
	assert.True(t, p.HasStudent(s2.ID))
	assert.False(t, p.HasStudent(s1.ID))
	f.checkConsistent(t, g.ID)

	// deleting the last child orphans and deletes the parent
	require.NoError(t, f.svc.DeleteStudents(ctx, s2.ID))
	_, err = f.parents.GetParentByID(ctx, pid)
	assert.Equal(t, parent.ErrNotFound, err)

	t.Run("unknown ids are skipped", func(t *testing.T) {
		assert.NoError(t, f.svc.DeleteStudents(ctx, primitive.NewObjectID()))
	})
}

func Test_DeleteGroup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	gA := testutil.CreateGroup(t, f.groups, "Group A")
	gB := testutil.CreateGroup(t, f.groups, "Group B")

	s1, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Liisa", GroupID: gA.ID.Hex(), ParentEmail: "anna@example.com", ParentName: "Anna Kask",
	})
	require.NoError(t, err)
	// shared parent with a student in another group
	s2, err := f.svc.Enroll(ctx, student.NewStudent{
		FirstName: "Marta", GroupID: gB.ID.Hex(), ParentEmail: "anna@example.com",
	})
	require.NoError(t, err)
	pid := *s1.Parent

	// group data that must go down with the group
	_, err = f.updates.CreateUpdate(ctx, update.Update{Group: gA.ID, Content: "Recital on Friday"})
	require.NoError(t, err)
	scheds, err := f.schedules.CreateSchedules(ctx, schedule.Schedule{Group: gA.ID})
	require.NoError(t, err)
	_, err = f.schedules.UpsertAttendance(ctx, schedule.Attendance{Schedule: scheds[0].ID, Student: s1.ID})
	require.NoError(t, err)
	teacher := testutil.CreateUser(t, f.users, "Mari Mets", "marimets", "mari@tantsukool.ee", "", user.TeacherRoles, true, gA.ID, gB.ID)

	require.NoError(t, f.svc.DeleteGroup(ctx, gA.ID))

	_, err = f.groups.GetGroupByID(ctx, gA.ID)
	assert.Equal(t, group.ErrNotFound, err)
	_, err = f.students.GetStudentByID(ctx, s1.ID)
	assert.Equal(t, student.ErrNotFound, err)

	// the feed, the schedules and their marks are gone too
	updates, err := f.updates.QueryUpdatesByGroup(ctx, gA.ID)
	require.NoError(t, err)
	assert.Empty(t, updates)
	schedules, err := f.schedules.QuerySchedulesByGroup(ctx, gA.ID)
	require.NoError(t, err)
	assert.Empty(t, schedules)
	marks, err := f.schedules.QueryAttendanceBySchedule(ctx, scheds[0].ID)
	require.NoError(t, err)
	assert.Empty(t, marks)

	// the teacher only keeps access to the surviving group
	teacher, err = f.users.GetUserByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{gB.ID}, teacher.Groups)

	// the parent survives through its other child
	p := f.parent(t, pid)
	assert.True(t, p.HasStudent(s2.ID))
	f.checkConsistent(t, gB.ID)

	// deleting the second group orphans the parent for good
	require.NoError(t, f.svc.DeleteGroup(ctx, gB.ID))
	_, err = f.parents.GetParentByID(ctx, pid)
	assert.Equal(t, parent.ErrNotFound, err)
}

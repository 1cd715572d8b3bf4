package update_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
	"github.com/tantsukool/backend/services/email"
	"github.com/tantsukool/backend/storage/inmem"
	"github.com/tantsukool/backend/tests"
)

type fixture struct {
	svc     *update.Service
	groups  group.Repository
	parents parent.Repository
}

func newFixture(t *testing.T) *fixture {
	db := testutil.PrepareDB(t)
	f := &fixture{
		groups:  inmemdb.NewGroupRepository(db),
		parents: inmemdb.NewParentRepository(db),
	}
	f.svc = update.NewService(inmemdb.NewUpdateRepository(db), f.groups, f.parents, emailsvc.NewConsoleServiceMock(), testutil.Logger{})
	return f
}

func (f *fixture) addParent(t *testing.T, g group.Group, firstName, lastName, email string) parent.Parent {
	p := testutil.CreateParent(t, f.parents, firstName, lastName, email)
	require.NoError(t, f.groups.AddGroupParent(context.Background(), g.ID, p.ID))
	return p
}

func Test_Create(t *testing.T) {
	ctx := context.Background()
	author := user.User{ID: primitive.NewObjectID(), Name: "Mari Mets"}

	t.Run("unknown group fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, primitive.NewObjectID(), author, update.NewUpdate{Content: "hello"})
		assert.Equal(t, group.ErrNotFound, err)
	})

	t.Run("posts to the feed and notifies parents", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		f := newFixture(t)
		g := testutil.CreateGroup(t, f.groups, "Hip-Hop Minis")
		p1 := f.addParent(t, g, "Anna", "Kask", "anna.kask@example.com")
		p2 := f.addParent(t, g, "Priit", "Tamm", "priit.tamm@example.com")

		u, err := f.svc.Create(ctx, g.ID, author, update.NewUpdate{Content: "No class next Monday."})
		require.NoError(t, err)
		assert.False(t, u.ID.IsZero())
		assert.Equal(t, g.ID, u.Group)
		assert.Equal(t, author.ID, u.Author)
		assert.Equal(t, "Mari Mets", u.AuthorName)
		assert.Empty(t, u.Comments)

		updates, err := f.svc.QueryByGroup(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, updates, 1)

		require.Len(t, emailsvc.SentMessages, 1)
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "Hip-Hop Minis: new update", msg.Subject)
		assert.ElementsMatch(t, []string{p1.Email, p2.Email}, bccAddresses(msg))
		assert.Contains(t, msg.TextContent, "No class next Monday.")
		assert.Contains(t, msg.TextContent, "Mari Mets")
	})

	t.Run("deduplicates parent addresses", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		f := newFixture(t)
		g := testutil.CreateGroup(t, f.groups, "Ballet Juniors")
		f.addParent(t, g, "Anna", "Kask", "anna.kask@example.com")
		f.addParent(t, g, "Anna", "Kask", "anna.kask@example.com")

		_, err := f.svc.Create(ctx, g.ID, author, update.NewUpdate{Content: "Recital rehearsal."})
		require.NoError(t, err)

		require.Len(t, emailsvc.SentMessages, 1)
		assert.Equal(t, []string{"anna.kask@example.com"}, bccAddresses(emailsvc.SentMessages[0]))
	})

	t.Run("no parents means no email", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		f := newFixture(t)
		g := testutil.CreateGroup(t, f.groups, "Breakdance Crew")

		_, err := f.svc.Create(ctx, g.ID, author, update.NewUpdate{Content: "Welcome!"})
		require.NoError(t, err)
		assert.Empty(t, emailsvc.SentMessages)
	})
}

func Test_Comment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := testutil.CreateGroup(t, f.groups, "Hip-Hop Minis")
	author := user.User{ID: primitive.NewObjectID(), Name: "Mari Mets"}

	u, err := f.svc.Create(ctx, g.ID, author, update.NewUpdate{Content: "First post."})
	require.NoError(t, err)

	t.Run("unknown update fails", func(t *testing.T) {
		_, err := f.svc.Comment(ctx, primitive.NewObjectID(), author, update.NewComment{Content: "hi"})
		assert.Equal(t, update.ErrNotFound, err)
	})

	t.Run("appends in order", func(t *testing.T) {
		u, err = f.svc.Comment(ctx, u.ID, author, update.NewComment{Content: "See you there!"})
		require.NoError(t, err)
		u, err = f.svc.Comment(ctx, u.ID, author, update.NewComment{Content: "Bring water."})
		require.NoError(t, err)

		require.Len(t, u.Comments, 2)
		assert.Equal(t, "See you there!", u.Comments[0].Content)
		assert.Equal(t, "Bring water.", u.Comments[1].Content)
		assert.Equal(t, "Mari Mets", u.Comments[0].AuthorName)
		assert.False(t, u.Comments[0].ID.IsZero())
	})

	t.Run("deleting an unknown comment fails", func(t *testing.T) {
		err := f.svc.DeleteComment(ctx, u.ID, primitive.NewObjectID())
		assert.Equal(t, update.ErrCommentNotFound, err)
	})

	t.Run("deletes a comment", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteComment(ctx, u.ID, u.Comments[0].ID))

		got, err := f.svc.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "Bring water.", got.Comments[0].Content)
	})
}

func Test_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := testutil.CreateGroup(t, f.groups, "Hip-Hop Minis")
	author := user.User{ID: primitive.NewObjectID(), Name: "Mari Mets"}

	u, err := f.svc.Create(ctx, g.ID, author, update.NewUpdate{Content: "Short lived."})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, u.ID))
	_, err = f.svc.GetByID(ctx, u.ID)
	assert.Equal(t, update.ErrNotFound, err)
}

func bccAddresses(msg core.EmailMessage) []string {
	addrs := make([]string, 0, len(msg.Bcc))
	for _, a := range msg.Bcc {
		addrs = append(addrs, a.Address)
	}
	return addrs
}

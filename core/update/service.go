package update

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("update not found")
	ErrCommentNotFound = errors.New("comment not found")
)

type (
	Repository interface {
		CreateUpdate(ctx context.Context, u Update) (Update, error)
		QueryUpdatesByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Update, error)
		GetUpdateByID(ctx context.Context, id primitive.ObjectID) (Update, error)
		AddComment(ctx context.Context, updateID primitive.ObjectID, c Comment) (Update, error)
		RemoveComment(ctx context.Context, updateID, commentID primitive.ObjectID) error
		DeleteUpdate(ctx context.Context, id primitive.ObjectID) error
		DeleteUpdatesByGroup(ctx context.Context, groupID primitive.ObjectID) error
	}

	Service struct {
		repo       Repository
		groupRepo  group.Repository
		parentRepo parent.Repository
		mailSvc    core.EmailService
		logger     core.Logger
	}
)

func NewService(repo Repository, groupRepo group.Repository, parentRepo parent.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		groupRepo:  groupRepo,
		parentRepo: parentRepo,
		mailSvc:    mailSvc,
		logger:     logger,
	}
}

// Create posts a new update to the group's feed and notifies the group's
// parents by email. Notification failures are logged and never fail the
// triggering request.
func (svc *Service) Create(ctx context.Context, groupID primitive.ObjectID, author user.User, nu NewUpdate) (Update, error) {
	g, err := svc.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return Update{}, err
	}

	now := time.Now().UTC()
	u, err := svc.repo.CreateUpdate(ctx, Update{
		Group:        groupID,
		Author:       author.ID,
		AuthorName:   author.Name,
		Content:      nu.Content,
		ImageURL:     nu.ImageURL,
		ThumbnailURL: nu.ThumbnailURL,
		Comments:     []Comment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Update{}, err
	}

	svc.notifyParents(ctx, g, u)
	return u, nil
}

func (svc *Service) QueryByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Update, error) {
	return svc.repo.QueryUpdatesByGroup(ctx, groupID)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Update, error) {
	return svc.repo.GetUpdateByID(ctx, id)
}

func (svc *Service) Comment(ctx context.Context, updateID primitive.ObjectID, author user.User, nc NewComment) (Update, error) {
	now := time.Now().UTC()
	return svc.repo.AddComment(ctx, updateID, Comment{
		ID:         primitive.NewObjectID(),
		Author:     author.ID,
		AuthorName: author.Name,
		Content:    nc.Content,
		CreatedAt:  now,
	})
}

func (svc *Service) DeleteComment(ctx context.Context, updateID, commentID primitive.ObjectID) error {
	return svc.repo.RemoveComment(ctx, updateID, commentID)
}

func (svc *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteUpdate(ctx, id)
}

// notifyParents emails all distinct parent addresses of the group.
func (svc *Service) notifyParents(ctx context.Context, g group.Group, u Update) {
	parents, err := svc.parentRepo.GetParentsByIDs(ctx, g.Parents)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("loading parents for update notification: %v", err), err)
		return
	}

	seen := make(map[string]bool, len(parents))
	to := make([]mail.Address, 0, len(parents))
	for _, p := range parents {
		if p.Email == "" || seen[p.Email] {
			continue
		}
		seen[p.Email] = true
		to = append(to, p.Address())
	}
	if len(to) == 0 {
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		Bcc:          to,
		To:           []mail.Address{core.Conf.DefaultFromEmail},
		Subject:      fmt.Sprintf("%s: new update", g.Name),
		TemplateName: "new-update",
		TemplateData: struct {
			GroupName  string
			AuthorName string
			Content    string
		}{g.Name, u.AuthorName, u.Content},
	})
}

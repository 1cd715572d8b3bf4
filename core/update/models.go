package update

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
)

// Update is one entry of a group's activity feed, written by an admin or
// one of the group's teachers.
type Update struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Group        primitive.ObjectID `json:"group" bson:"group"`
	Author       primitive.ObjectID `json:"author" bson:"author"`
	AuthorName   string             `json:"author_name" bson:"author_name"`
	Content      string             `json:"content" bson:"content"`
	ImageURL     string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	Comments     []Comment          `json:"comments" bson:"comments"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

// Comment is embedded in its Update document.
type Comment struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Author     primitive.ObjectID `json:"author" bson:"author"`
	AuthorName string             `json:"author_name" bson:"author_name"`
	Content    string             `json:"content" bson:"content"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"` // UTC
}

// NewUpdate contains information needed to post a new Update.
type NewUpdate struct {
	Content      string `json:"content" validate:"required"`
	ImageURL     string `json:"image_url" validate:"omitempty,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

func (nu *NewUpdate) Validate() error {
	nu.Content = core.CleanString(nu.Content)
	return core.Validate.Struct(nu)
}

// NewComment contains information needed to comment on an Update.
type NewComment struct {
	Content string `json:"content" validate:"required"`
}

func (nc *NewComment) Validate() error {
	nc.Content = core.CleanString(nc.Content)
	return core.Validate.Struct(nc)
}

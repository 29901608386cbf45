package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// InsertContact stores a contact message and sets its ID.
func (d *Blog) InsertContact(ctx context.Context, c *model.Contact) error {
	ret, err := d.GetContactsCol().InsertOne(ctx, c)
	if err != nil {
		return errors.Wrap(err, "insert contact")
	}

	c.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

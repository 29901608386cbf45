package service

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library/notify"
)

// notifyTimeout bounds delivery of one contact notification
const notifyTimeout = 30 * time.Second

// CreateContact stores a contact message and notifies the owner in background.
// A failed notification is logged and never fails the request.
func (s *Blog) CreateContact(ctx context.Context, req *dto.ContactRequest, ip, userAgent string) (*model.Contact, error) {
	verr := new(model.ValidationError)
	c := &model.Contact{
		Name:      checkRequired(verr, "name", req.Name, maxCommentAuthorNameLen),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Subject:   checkOptional(verr, "subject", req.Subject, maxPostTitleLength),
		Message:   checkRequired(verr, "message", req.Message, maxContactMessageLength),
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: s.now(),
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if err := s.store.InsertContact(ctx, c); err != nil {
		return nil, errors.Wrap(err, "insert contact")
	}

	logger := s.loggerFrom(ctx).With(zap.String("contact", c.ID.Hex()))
	msg := notify.Message{
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Body:      c.Message,
		CreatedAt: c.CreatedAt,
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.Notify(nctx, msg); err != nil {
			logger.Error("notify contact message", zap.Error(err))
			return
		}
		logger.Debug("contact message notified")
	}()

	return c, nil
}

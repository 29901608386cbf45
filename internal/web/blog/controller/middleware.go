package controller

import (
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/internal/web/envelope"
	"github.com/blogcms/blog-api/library/auth"
)

const (
	ctxKeyIdentity = "blog.identity"
	ctxKeyAuthErr  = "blog.auth_err"
)

// identify attaches the caller identity when a valid bearer token is sent.
// Public routes ignore bad tokens, protected routes reject them.
func (ctl *Controller) identify(c *gin.Context) {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return
	}

	id, err := ctl.verifier.Verify(token)
	if err != nil {
		gmw.GetLogger(c).Debug("reject bearer token", zap.Error(err))
		c.Set(ctxKeyAuthErr, err)
		return
	}

	c.Set(ctxKeyIdentity, id)
}

// identityOf returns the caller, nil when anonymous
func identityOf(c *gin.Context) *auth.Identity {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

// authenticated aborts with 401 unless the caller sent a valid token
func authenticated(c *gin.Context) bool {
	if identityOf(c) != nil {
		return true
	}

	if _, bad := c.Get(ctxKeyAuthErr); bad {
		envelope.Error(c, model.Unauthorized("invalid or expired token"))
	} else {
		envelope.Error(c, model.Unauthorized("authentication required"))
	}
	return false
}

func (ctl *Controller) requireAuth(c *gin.Context) {
	authenticated(c)
}

func (ctl *Controller) requireAdmin(c *gin.Context) {
	if !authenticated(c) {
		return
	}
	if !identityOf(c).IsAdmin() {
		envelope.Error(c, model.Forbidden("admin access required"))
	}
}

package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/envelope"
)

func (ctl *Controller) createContact(c *gin.Context) {
	req := new(dto.ContactRequest)
	if !bindJSON(c, req) {
		return
	}

	if _, err := ctl.svc.CreateContact(c, req, clientIP(c), c.Request.UserAgent()); err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusCreated, "Thank you for your message, we will get back to you soon", nil)
}

package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/envelope"
)

func (ctl *Controller) listComments(c *gin.Context) {
	postID, valid := objectIDParam(c, "postId")
	if !valid {
		return
	}
	page, valid := pageQuery(c)
	if !valid {
		return
	}

	list, err := ctl.svc.ListComments(c, postID, page)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, list)
}

func (ctl *Controller) createComment(c *gin.Context) {
	postID, valid := objectIDParam(c, "postId")
	if !valid {
		return
	}
	req := new(dto.CreateCommentRequest)
	if !bindJSON(c, req) {
		return
	}

	comment, err := ctl.svc.CreateComment(c, postID, req)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	comment.Email = ""
	envelope.OK(c, http.StatusCreated, "Comment submitted and awaiting approval", comment)
}

func (ctl *Controller) pendingComments(c *gin.Context) {
	page, valid := pageQuery(c)
	if !valid {
		return
	}

	list, err := ctl.svc.PendingComments(c, page)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, list)
}

func (ctl *Controller) approveComment(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}

	comment, err := ctl.svc.ApproveComment(c, id)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "Comment approved", comment)
}

func (ctl *Controller) deleteComment(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}

	n, err := ctl.svc.DeleteComment(c, id)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "Comment deleted successfully", dto.CommentDeleted{Deleted: n})
}

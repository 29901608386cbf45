package controller

import (
	"mime/multipart"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/internal/web/blog/service"
	"github.com/blogcms/blog-api/internal/web/envelope"
)

// multipartMemory bytes of a multipart form kept in memory, the rest spills to disk
const multipartMemory = 8 << 20

func (ctl *Controller) uploadPostImage(c *gin.Context) {
	ctl.upload(c, service.UploadPosts, "image", false)
}

func (ctl *Controller) uploadPostImages(c *gin.Context) {
	ctl.upload(c, service.UploadPosts, "images", true)
}

func (ctl *Controller) uploadAvatar(c *gin.Context) {
	ctl.upload(c, service.UploadAvatars, "avatar", false)
}

func (ctl *Controller) upload(c *gin.Context, kind service.UploadKind, field string, multi bool) {
	limit := ctl.svc.MaxUploadBytes() + multipartMemory
	if multi {
		limit = ctl.svc.MaxUploadBytes()*service.MaxUploadFiles + multipartMemory
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	files, err := formFiles(c, field)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	if !multi && len(files) > 1 {
		envelope.Error(c, model.UploadRejected("only one file is accepted in field %q", field))
		return
	}

	saved, err := ctl.svc.SaveUploads(c, kind, files)
	if err != nil {
		envelope.Error(c, err)
		return
	}

	if multi {
		envelope.OK(c, http.StatusOK, "Files uploaded successfully", saved)
		return
	}
	envelope.OK(c, http.StatusOK, "File uploaded successfully", saved[0])
}

func formFiles(c *gin.Context, field string) ([]*multipart.FileHeader, error) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.TooLarge("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, model.UploadRejected("expected a multipart form")
	}

	files := c.Request.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, model.UploadRejected("no file uploaded in field %q", field)
	}
	return files, nil
}

func (ctl *Controller) deleteUpload(c *gin.Context) {
	kind, err := service.ParseUploadKind(c.Param("type"))
	if err != nil {
		envelope.Error(c, err)
		return
	}

	if err = ctl.svc.DeleteUpload(c, kind, c.Param("filename")); err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "File deleted successfully", nil)
}

func (ctl *Controller) listUploads(c *gin.Context) {
	kind, err := service.ParseUploadKind(c.Param("type"))
	if err != nil {
		envelope.Error(c, err)
		return
	}

	files, err := ctl.svc.ListUploads(c, kind)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, files)
}

package rest

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

// uploadFile accepts multipart/form-data with a "file" part and optional
// "admin_id" and "description" fields.
func (s *Server) uploadFile(c *gin.Context) {
	if s.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.abortWithError(c, err)
			return
		}
		badRequest(c, "multipart field \"file\" is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	defer f.Close()

	file, err := s.svc.Files.Upload(c.Request.Context(), currentUser(c), services.Upload{
		AdminID:     c.PostForm("admin_id"),
		Filename:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Size:        header.Size,
		Description: c.PostForm("description"),
		Body:        f,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newFileResponse(file))
}

func (s *Server) listFiles(c *gin.Context) {
	skip, limit, ok := page(c)
	if !ok {
		return
	}

	list, err := s.svc.Files.List(c.Request.Context(), currentUser(c), c.Query("admin_id"), skip, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := fileListResponse{Files: make([]fileResponse, 0, len(list)), Total: len(list)}
	for _, f := range list {
		out.Files = append(out.Files, newFileResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getFile(c *gin.Context) {
	f, err := s.svc.Files.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFileResponse(f))
}

func (s *Server) deleteFile(c *gin.Context) {
	if err := s.svc.Files.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// downloadFile streams the remote content in chunks. Once the first byte is
// written failures can only be logged.
func (s *Server) downloadFile(c *gin.Context) {
	ctx := c.Request.Context()
	file, body, err := s.svc.Files.Download(ctx, currentUser(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", file.MimeType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	if file.FileSize > 0 {
		c.Header("X-File-Size", strconv.FormatInt(file.FileSize, 10))
	}
	c.Status(http.StatusOK)

	n, err := drive.CopyChunks(ctx, c.Writer, body, s.chunkSize)
	if err != nil {
		s.logger.Warn(ctx, "download interrupted",
			"request_id", c.GetString(requestIDKey), "file_id", file.ID, "written", n, "error", err.Error())
	}
}

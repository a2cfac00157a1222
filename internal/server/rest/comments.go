package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	cm, err := s.svc.Comments.Create(c.Request.Context(), currentUser(c), c.Param("id"), req.Text)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(cm))
}

func (s *Server) listComments(c *gin.Context) {
	list, err := s.svc.Comments.List(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := make([]commentResponse, 0, len(list))
	for _, cm := range list {
		out = append(out, newCommentResponse(cm))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	cm, err := s.svc.Comments.Update(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("cid"), req.Text)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(cm))
}

func (s *Server) deleteComment(c *gin.Context) {
	if err := s.svc.Comments.Delete(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("cid")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) commentHistory(c *gin.Context) {
	entries, err := s.svc.Comments.History(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("cid"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := make([]historyResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, newHistoryResponse(h))
	}
	c.JSON(http.StatusOK, out)
}

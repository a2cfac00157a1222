package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c)))
}

func (s *Server) updateMe(c *gin.Context) {
	var req userUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := s.svc.Users.UpdateMe(c.Request.Context(), currentUser(c), req.toUpdate())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (s *Server) myAdmins(c *gin.Context) {
	list, err := s.svc.Users.MyAdmins(c.Request.Context(), currentUser(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAdminList(list))
}

func (s *Server) associateAdmin(c *gin.Context) {
	var req associationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.svc.Admins.Associate(c.Request.Context(), currentUser(c), req.UserID, req.AdminID); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User associated with admin successfully"})
}

func (s *Server) disassociateAdmin(c *gin.Context) {
	var req associationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.svc.Admins.Disassociate(c.Request.Context(), currentUser(c), req.UserID, req.AdminID); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User disassociated from admin successfully"})
}

func (s *Server) listUsers(c *gin.Context) {
	skip, limit, ok := page(c)
	if !ok {
		return
	}
	list, err := s.svc.Users.List(c.Request.Context(), currentUser(c), skip, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserList(list))
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.svc.Users.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (s *Server) updateUser(c *gin.Context) {
	var req userUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := s.svc.Users.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.toUpdate())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.svc.Users.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package rest

import (
	"net/http"

	"github.com/dmitrijs2005/docdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) adminProfile(c *gin.Context) {
	p, err := s.svc.Admins.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAdminResponse(p))
}

func (s *Server) listAdmins(c *gin.Context) {
	skip, limit, ok := page(c)
	if !ok {
		return
	}
	list, err := s.svc.Admins.ListProfiles(c.Request.Context(), currentUser(c), skip, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAdminList(list))
}

func (s *Server) createAdmin(c *gin.Context) {
	var req adminCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := s.svc.Admins.CreateAdmin(c.Request.Context(), currentUser(c), services.NewAdmin{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAdminResponse(p))
}

func (s *Server) updateAdmin(c *gin.Context) {
	var req adminUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := s.svc.Admins.UpdateProfile(c.Request.Context(), currentUser(c), c.Param("id"), services.AdminUpdate{
		Name:          req.Name,
		DriveFolderID: req.DriveFolderID,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAdminResponse(p))
}

func (s *Server) deleteAdmin(c *gin.Context) {
	if err := s.svc.Admins.DeleteProfile(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createUser(c *gin.Context) {
	var req userCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := s.svc.Admins.CreateUser(c.Request.Context(), currentUser(c), req.Email, req.Password, req.Role)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(u))
}

func (s *Server) auditUsers(c *gin.Context) {
	skip, limit, ok := page(c)
	if !ok {
		return
	}
	list, err := s.svc.Admins.AuditUsers(c.Request.Context(), currentUser(c), skip, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserList(list))
}

func (s *Server) changeRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := s.svc.Admins.ChangeRole(c.Request.Context(), currentUser(c), c.Param("id"), req.Role)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.root)
	r.GET("/health", s.health)

	a := r.Group("/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.POST("/refresh", s.refresh)

	authed := r.Group("/", s.authRequired())

	u := authed.Group("/users")
	u.GET("/me", s.getMe)
	u.PATCH("/me", s.updateMe)
	u.GET("/me/admins", s.myAdmins)
	u.POST("/associate-admin", s.associateAdmin)
	u.DELETE("/disassociate-admin", s.disassociateAdmin)
	u.GET("", s.listUsers)
	u.GET("/:id", s.getUser)
	u.PATCH("/:id", s.updateUser)
	u.DELETE("/:id", s.deleteUser)

	ad := authed.Group("/admin")
	ad.GET("/profile", s.adminProfile)
	ad.GET("/all", s.listAdmins)
	ad.POST("/create", s.createAdmin)
	ad.PATCH("/:id", s.updateAdmin)
	ad.DELETE("/:id", s.deleteAdmin)
	ad.POST("/users/create", s.createUser)
	ad.GET("/audit/users", s.auditUsers)
	ad.PUT("/users/:id/role", s.changeRole)

	d := authed.Group("/drive")
	d.POST("/credentials", s.setCredentials)
	d.GET("/credentials", s.getCredentials)
	d.DELETE("/credentials", s.deleteCredentials)
	d.POST("/credentials/validate", s.validateCredentials)
	d.PUT("/folder", s.updateFolder)
	d.GET("/folder/contents", s.folderContents)
	d.POST("/folder/create-structure", s.createStructure)

	f := authed.Group("/files")
	f.POST("/upload", s.uploadFile)
	f.GET("", s.listFiles)
	f.GET("/:id", s.getFile)
	f.DELETE("/:id", s.deleteFile)
	f.GET("/:id/download", s.downloadFile)
	f.POST("/:id/comments", s.createComment)
	f.GET("/:id/comments", s.listComments)
	f.PATCH("/:id/comments/:cid", s.updateComment)
	f.DELETE("/:id/comments/:cid", s.deleteComment)
	f.GET("/:id/comments/:cid/history", s.commentHistory)
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "docdrive API", "version": apiVersion})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// page reads skip and limit query parameters; zero values defer to service defaults.
func page(c *gin.Context) (skip, limit int, ok bool) {
	var err error
	if v := c.Query("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			badRequest(c, "skip must be a non-negative integer")
			return 0, 0, false
		}
	}
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			badRequest(c, "limit must be a positive integer")
			return 0, 0, false
		}
	}
	return skip, limit, true
}

// bindJSON decodes the body into v, answering 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

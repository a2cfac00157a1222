package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) setCredentials(c *gin.Context) {
	var req driveCredentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := s.svc.Drive.SetCredentials(c.Request.Context(), currentUser(c), req.ServiceAccountJSON, req.DriveFolderID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCredentialStatus(st))
}

func (s *Server) getCredentials(c *gin.Context) {
	st, err := s.svc.Drive.GetCredentials(c.Request.Context(), currentUser(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCredentialStatus(st))
}

func (s *Server) deleteCredentials(c *gin.Context) {
	if err := s.svc.Drive.DeleteCredentials(c.Request.Context(), currentUser(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// validateCredentials tests the key in the optional body, or the stored one
// when the request has none.
func (s *Server) validateCredentials(c *gin.Context) {
	var req validateCredentialsRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	valid, err := s.svc.Drive.ValidateCredentials(c.Request.Context(), currentUser(c), req.ServiceAccountJSON)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (s *Server) updateFolder(c *gin.Context) {
	var req folderRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := s.svc.Drive.UpdateFolder(c.Request.Context(), currentUser(c), req.DriveFolderID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCredentialStatus(st))
}

func (s *Server) folderContents(c *gin.Context) {
	folderID, objects, err := s.svc.Drive.ListFolderContents(c.Request.Context(), currentUser(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	files := make([]objectResponse, 0, len(objects))
	for _, o := range objects {
		files = append(files, newObjectResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"folder_id": folderID, "total_items": len(files), "files": files})
}

func (s *Server) createStructure(c *gin.Context) {
	force := false
	if v := c.Query("force"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			badRequest(c, "force must be a boolean")
			return
		}
	}

	fs, err := s.svc.Drive.CreateStructure(c.Request.Context(), currentUser(c), force)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	msg := "Folder structure already exists"
	if fs.Created {
		msg = "Folder structure created successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "created": fs.Created, "folders": fs.Folders})
}

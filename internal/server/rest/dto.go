package rest

import (
	"time"

	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: "bearer"}
}

type userUpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r userUpdateRequest) toUpdate() services.UserUpdate {
	return services.UserUpdate{Email: r.Email, Password: r.Password}
}

type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func newUserList(list []*models.User) []userResponse {
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, newUserResponse(u))
	}
	return out
}

type associationRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	AdminID string `json:"admin_id" binding:"required"`
}

type adminCreateRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type adminUpdateRequest struct {
	Name          *string `json:"name"`
	DriveFolderID *string `json:"drive_folder_id"`
}

type userCreateRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role"`
}

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type adminResponse struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Name                string    `json:"name"`
	DriveFolderID       string    `json:"drive_folder_id,omitempty"`
	HasDriveCredentials bool      `json:"has_drive_credentials"`
	CreatedAt           time.Time `json:"created_at"`
}

func newAdminResponse(a *models.AdminProfile) adminResponse {
	return adminResponse{
		ID:                  a.ID,
		UserID:              a.UserID,
		Name:                a.Name,
		DriveFolderID:       a.DriveFolderID,
		HasDriveCredentials: a.HasCredentials(),
		CreatedAt:           a.CreatedAt,
	}
}

func newAdminList(list []*models.AdminProfile) []adminResponse {
	out := make([]adminResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAdminResponse(a))
	}
	return out
}

type driveCredentialsRequest struct {
	ServiceAccountJSON string `json:"service_account_json" binding:"required"`
	DriveFolderID      string `json:"drive_folder_id" binding:"required"`
}

type validateCredentialsRequest struct {
	ServiceAccountJSON string `json:"service_account_json"`
}

type folderRequest struct {
	DriveFolderID string `json:"drive_folder_id" binding:"required"`
}

type credentialStatusResponse struct {
	DriveFolderID  string `json:"drive_folder_id,omitempty"`
	HasCredentials bool   `json:"has_credentials"`
	ClientEmail    string `json:"client_email,omitempty"`
}

func newCredentialStatus(st *services.CredentialStatus) credentialStatusResponse {
	return credentialStatusResponse{
		DriveFolderID:  st.DriveFolderID,
		HasCredentials: st.HasCredentials,
		ClientEmail:    st.ClientEmail,
	}
}

type objectResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size,omitempty"`
	CreatedTime  time.Time `json:"createdTime,omitzero"`
	ModifiedTime time.Time `json:"modifiedTime,omitzero"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
}

func newObjectResponse(o *drive.Object) objectResponse {
	return objectResponse{
		ID:           o.ID,
		Name:         o.Name,
		MimeType:     o.MimeType,
		Size:         o.Size,
		CreatedTime:  o.CreatedAt,
		ModifiedTime: o.ModifiedAt,
		WebViewLink:  o.WebViewLink,
	}
}

type fileResponse struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	DriveFileID      string    `json:"drive_file_id"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"file_size"`
	OwnerAdminID     string    `json:"owner_admin_id"`
	UploadedByUserID string    `json:"uploaded_by_user_id"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func newFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:               f.ID,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		DriveFileID:      f.DriveFileID,
		MimeType:         f.MimeType,
		FileSize:         f.FileSize,
		OwnerAdminID:     f.OwnerAdminID,
		UploadedByUserID: f.UploadedByUserID,
		Description:      f.Description,
		CreatedAt:        f.CreatedAt,
	}
}

type fileListResponse struct {
	Files []fileResponse `json:"files"`
	Total int            `json:"total"`
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{ID: c.ID, FileID: c.FileID, UserID: c.UserID, Text: c.Text, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

type historyResponse struct {
	ID           string               `json:"id"`
	CommentID    string               `json:"comment_id"`
	Action       models.HistoryAction `json:"action"`
	PreviousText *string              `json:"previous_text"`
	NewText      *string              `json:"new_text"`
	ActorUserID  string               `json:"actor_user_id"`
	Timestamp    time.Time            `json:"timestamp"`
}

func newHistoryResponse(h *models.CommentHistoryEntry) historyResponse {
	return historyResponse{
		ID:           h.ID,
		CommentID:    h.CommentID,
		Action:       h.Action,
		PreviousText: h.PreviousText,
		NewText:      h.NewText,
		ActorUserID:  h.ActorUserID,
		Timestamp:    h.CreatedAt,
	}
}

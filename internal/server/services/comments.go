package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/access"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
)

// CommentService manages file comments. Every create, edit and delete writes
// exactly one history entry in the same transaction as the change.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCommentService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *CommentService {
	return &CommentService{db: db, repomanager: m, logger: l.With("module", "comment_service")}
}

func commentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.NewValidationError("comment text is required")
	}
	return text, nil
}

func (s *CommentService) Create(ctx context.Context, caller *models.User, fileID, text string) (*models.Comment, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}
	if _, err := readableFile(ctx, s.repomanager, s.db, caller, fileID); err != nil {
		return nil, err
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.Comment, error) {
		c, err := s.repomanager.Comments(tx).Create(ctx, &models.Comment{FileID: fileID, UserID: caller.ID, Text: text})
		if err != nil {
			return nil, fmt.Errorf("error creating comment: %w", err)
		}
		if err := s.record(ctx, tx, c, models.ActionCreated, nil, &c.Text, caller); err != nil {
			return nil, err
		}
		return c, nil
	})
}

func (s *CommentService) List(ctx context.Context, caller *models.User, fileID string) ([]*models.Comment, error) {
	if _, err := readableFile(ctx, s.repomanager, s.db, caller, fileID); err != nil {
		return nil, err
	}
	return s.repomanager.Comments(s.db).ListByFile(ctx, fileID)
}

// Update replaces the text of the caller's own comment.
func (s *CommentService) Update(ctx context.Context, caller *models.User, fileID, commentID, text string) (*models.Comment, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.Comment, error) {
		c, err := s.lockComment(ctx, tx, fileID, commentID)
		if err != nil {
			return nil, err
		}
		if !access.CanUpdateComment(caller, c) {
			return nil, common.ErrorForbidden
		}

		previous := c.Text
		updated, err := s.repomanager.Comments(tx).UpdateText(ctx, c.ID, text)
		if err != nil {
			return nil, fmt.Errorf("error updating comment: %w", err)
		}
		if err := s.record(ctx, tx, updated, models.ActionEdited, &previous, &updated.Text, caller); err != nil {
			return nil, err
		}
		return updated, nil
	})
}

// Delete removes a comment; its history stays readable.
func (s *CommentService) Delete(ctx context.Context, caller *models.User, fileID, commentID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.lockComment(ctx, tx, fileID, commentID)
		if err != nil {
			return err
		}
		if !access.CanDeleteComment(caller, c) {
			return common.ErrorForbidden
		}
		if err := s.repomanager.Comments(tx).Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("error deleting comment: %w", err)
		}
		last := c.Text
		return s.record(ctx, tx, c, models.ActionDeleted, &last, nil, caller)
	})
}

// History returns the audit trail of a comment oldest first, including
// comments that were deleted since.
func (s *CommentService) History(ctx context.Context, caller *models.User, fileID, commentID string) ([]*models.CommentHistoryEntry, error) {
	if _, err := readableFile(ctx, s.repomanager, s.db, caller, fileID); err != nil {
		return nil, err
	}
	entries, err := s.repomanager.History(s.db).ListByComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.CommentHistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.FileID == fileID {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("comment: %w", common.ErrorNotFound)
	}
	return out, nil
}

// lockComment loads a comment for update and checks it belongs to fileID.
func (s *CommentService) lockComment(ctx context.Context, tx dbx.DBTX, fileID, commentID string) (*models.Comment, error) {
	c, err := s.repomanager.Comments(tx).GetForUpdate(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.FileID != fileID {
		return nil, fmt.Errorf("comment: %w", common.ErrorNotFound)
	}
	return c, nil
}

func (s *CommentService) record(ctx context.Context, tx dbx.DBTX, c *models.Comment, action models.HistoryAction, prev, next *string, actor *models.User) error {
	_, err := s.repomanager.History(tx).Append(ctx, &models.CommentHistoryEntry{
		CommentID:    c.ID,
		FileID:       c.FileID,
		Action:       action,
		PreviousText: prev,
		NewText:      next,
		ActorUserID:  actor.ID,
	})
	if err != nil {
		return fmt.Errorf("error recording comment history: %w", err)
	}
	return nil
}

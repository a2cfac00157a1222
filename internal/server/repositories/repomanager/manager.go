package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/admins"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/comments"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/history"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Admins(db dbx.DBTX) admins.Repository
	Files(db dbx.DBTX) files.Repository
	Comments(db dbx.DBTX) comments.Repository
	History(db dbx.DBTX) history.Repository
}

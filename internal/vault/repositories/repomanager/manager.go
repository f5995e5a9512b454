package repomanager

import (
	"context"
	"database/sql"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/folders"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/items"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/sharelinks"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/versions"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// service can run several repositories inside one transaction by handing them
// the same *sql.Tx. It also exposes the schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Folders(db dbx.DBTX) folders.Repository
	Items(db dbx.DBTX) items.Repository
	Versions(db dbx.DBTX) versions.Repository
	ShareLinks(db dbx.DBTX) sharelinks.Repository
}

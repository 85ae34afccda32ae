package internal

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/service"
	"bitwise74/share-api/internal/storage"
	"bitwise74/share-api/pkg/security"

	"github.com/chenyahui/gin-cache/persist"
	"gorm.io/gorm"
)

// Deps is built once at startup and handed to every handler. Nothing in it
// is swapped out at runtime
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Argon     *security.ArgonHash
	Pool      *storage.Pool
	Ledger    *service.Ledger
	Files     *service.FileService
	Links     *service.LinkService
	Access    *service.Evaluator
	Analytics *service.Analytics
	Reclaimer *service.Reclaimer
	Cache     persist.CacheStore
}

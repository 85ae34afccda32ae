package app

import (
	"bitwise74/share-api/cloudflare"
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/storage"
	"bitwise74/share-api/s3compat"
)

// DialAccount opens an account with the client its driver asks for. The
// pool has already normalized the driver name
func DialAccount(acc config.StorageAccount) (storage.ObjectStore, error) {
	if acc.Driver == storage.DriverS3Compat {
		return s3compat.Dial(acc)
	}

	return cloudflare.Dial(acc)
}

// Package service implements the vault's two core protocols on top of the
// keychain, the session manager, and a blob store: the one-time
// master-password binding ([BindingService]) and the envelope-encrypted
// record container ([RecordService]).
package service

import (
	"github.com/MKhiriev/passvault/config"
	"github.com/MKhiriev/passvault/internal/crypto"
	"github.com/MKhiriev/passvault/internal/session"
	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/storage"
)

type Services struct {
	BindingService BindingService
	RecordService  RecordService
}

func NewServices(store storage.Store, keychain crypto.KeyChainService, sess session.Manager, cfg config.Vault, logger *logger.Logger) *Services {
	containers := newContainerRepository(store, cfg.ContainerKey, logger)

	return &Services{
		BindingService: NewBindingService(store, keychain, sess, containers, cfg.AllowBindingReset, logger),
		RecordService:  NewRecordService(containers, keychain, sess, logger),
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/models"
	"github.com/MKhiriev/passvault/storage"
)

// containerRepository moves the vault container between its in-memory form
// and the single blob-store key it is persisted under. Both services share
// one instance so they agree on the key and on the empty-container
// convention.
type containerRepository struct {
	store  storage.Store
	key    string
	logger *logger.Logger
}

func newContainerRepository(store storage.Store, containerKey string, log *logger.Logger) *containerRepository {
	return &containerRepository{
		store:  store,
		key:    containerKey,
		logger: log,
	}
}

// Load reads the persisted container. A vault that has never been written
// comes back as a fresh empty container, not an error. A blob that exists
// but cannot be decoded is a storage-level corruption and is surfaced as
// such; it is never silently replaced.
func (r *containerRepository) Load(ctx context.Context) (models.VaultContainer, error) {
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		return models.NewVaultContainer(), nil
	}
	if err != nil {
		return models.VaultContainer{}, fmt.Errorf("load container: %w", err)
	}

	var container models.VaultContainer
	if err = json.Unmarshal([]byte(raw), &container); err != nil {
		r.logger.Err(err).Str("func", "containerRepository.Load").Msg("persisted container is not decodable")
		return models.VaultContainer{}, fmt.Errorf("%w: decode container: %w", storage.ErrStorage, err)
	}
	if container.Records == nil {
		container.Records = make([]models.SecureRecord, 0)
	}

	return container, nil
}

// Save persists the container whole under the repository key.
func (r *containerRepository) Save(ctx context.Context, container models.VaultContainer) error {
	payload, err := json.Marshal(container)
	if err != nil {
		return fmt.Errorf("encode container: %w", err)
	}

	if err = r.store.Set(ctx, r.key, string(payload)); err != nil {
		return fmt.Errorf("persist container: %w", err)
	}

	return nil
}

// Delete removes the persisted container. Used only by the gated reset.
func (r *containerRepository) Delete(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("delete container: %w", err)
	}

	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/passvault/internal/crypto"
	"github.com/MKhiriev/passvault/internal/session"
	"github.com/MKhiriev/passvault/internal/utils"
	"github.com/MKhiriev/passvault/internal/validators"
	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/models"
)

type recordService struct {
	containers *containerRepository
	keychain   crypto.KeyChainService
	session    session.Manager
	uuid       *utils.UUIDGenerator
	container  validators.Validator
	logger     *logger.Logger

	// mu serializes container mutations: every write is a read-modify-write
	// of the whole container blob.
	mu sync.Mutex
}

// NewRecordService wires a [RecordService] over the shared container
// repository. The session manager gates every operation; the keychain does
// all envelope work.
func NewRecordService(
	containers *containerRepository,
	keychain crypto.KeyChainService,
	sess session.Manager,
	log *logger.Logger,
) RecordService {
	return &recordService{
		containers: containers,
		keychain:   keychain,
		session:    sess,
		uuid:       utils.NewUUIDGenerator(),
		container:  validators.NewContainerValidator(),
		logger:     log,
	}
}

// Save implements [RecordService].
func (s *recordService) Save(ctx context.Context, record models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionKey, err := s.session.Key()
	if err != nil {
		return models.Record{}, err
	}
	if !validators.KnownRecordType(record.Type) {
		return models.Record{}, fmt.Errorf("%w: %q", validators.ErrInvalidRecordType, record.Type)
	}

	container, err := s.containers.Load(ctx)
	if err != nil {
		return models.Record{}, err
	}

	if record.ID == "" {
		record.ID = s.uuid.Generate()
	}

	sealed, err := s.seal(record, sessionKey)
	if err != nil {
		return models.Record{}, err
	}

	if idx := findRecord(container.Records, record.ID, record.Type); idx >= 0 {
		container.Records[idx] = sealed
	} else {
		container.Records = append(container.Records, sealed)
	}

	if err = s.containers.Save(ctx, container); err != nil {
		return models.Record{}, err
	}

	record.LastModified = time.UnixMilli(sealed.LastModified)
	return record, nil
}

// Get implements [RecordService].
func (s *recordService) Get(ctx context.Context, recordType models.RecordType) ([]models.Record, int, error) {
	sessionKey, err := s.session.Key()
	if err != nil {
		return nil, 0, err
	}

	container, err := s.containers.Load(ctx)
	if err != nil {
		return nil, 0, err
	}

	records := make([]models.Record, 0)
	corrupted := 0
	for _, sealed := range container.Records {
		if sealed.RecordType != recordType {
			continue
		}

		record, err := s.open(sealed, sessionKey)
		if err != nil {
			corrupted++
			s.logger.Warn().
				Str("func", "recordService.Get").
				Str("record_id", sealed.ID).
				Str("record_type", string(sealed.RecordType)).
				Msg("skipping record that cannot be decrypted")
			continue
		}
		records = append(records, record)
	}

	return records, corrupted, nil
}

// Update implements [RecordService].
func (s *recordService) Update(ctx context.Context, record models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionKey, err := s.session.Key()
	if err != nil {
		return models.Record{}, err
	}
	if !validators.KnownRecordType(record.Type) {
		return models.Record{}, fmt.Errorf("%w: %q", validators.ErrInvalidRecordType, record.Type)
	}

	container, err := s.containers.Load(ctx)
	if err != nil {
		return models.Record{}, err
	}

	idx := findRecord(container.Records, record.ID, record.Type)
	if idx < 0 {
		return models.Record{}, ErrRecordNotFound
	}

	sealed, err := s.seal(record, sessionKey)
	if err != nil {
		return models.Record{}, err
	}
	container.Records[idx] = sealed

	if err = s.containers.Save(ctx, container); err != nil {
		return models.Record{}, err
	}

	record.LastModified = time.UnixMilli(sealed.LastModified)
	return record, nil
}

// Delete implements [RecordService].
func (s *recordService) Delete(ctx context.Context, recordID string, recordType models.RecordType) error {
	return s.DeleteMany(ctx, []string{recordID}, recordType)
}

// DeleteMany implements [RecordService].
func (s *recordService) DeleteMany(ctx context.Context, recordIDs []string, recordType models.RecordType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.session.Key(); err != nil {
		return err
	}

	container, err := s.containers.Load(ctx)
	if err != nil {
		return err
	}

	doomed := make(map[string]struct{}, len(recordIDs))
	for _, id := range recordIDs {
		doomed[id] = struct{}{}
	}

	kept := container.Records[:0]
	for _, sealed := range container.Records {
		if _, hit := doomed[sealed.ID]; hit && sealed.RecordType == recordType {
			continue
		}
		kept = append(kept, sealed)
	}

	if len(kept) == len(container.Records) {
		return nil
	}
	container.Records = kept

	return s.containers.Save(ctx, container)
}

// Stats implements [RecordService].
func (s *recordService) Stats(ctx context.Context) (models.Stats, error) {
	if _, err := s.session.Key(); err != nil {
		return models.Stats{}, err
	}

	container, err := s.containers.Load(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	stats := models.Stats{CountsByType: make(map[models.RecordType]int)}
	var latest int64
	for _, sealed := range container.Records {
		stats.CountsByType[sealed.RecordType]++
		stats.TotalItems++
		if sealed.LastModified > latest {
			latest = sealed.LastModified
		}
	}
	if latest > 0 {
		stats.LastModified = time.UnixMilli(latest)
	}

	return stats, nil
}

// Export implements [RecordService].
func (s *recordService) Export(ctx context.Context) ([]byte, error) {
	if _, err := s.session.Key(); err != nil {
		return nil, err
	}

	container, err := s.containers.Load(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(container, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode container for export: %w", err)
	}

	return payload, nil
}

// Import implements [RecordService].
func (s *recordService) Import(ctx context.Context, data []byte, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.session.Key(); err != nil {
		return err
	}

	if err := s.container.Validate(ctx, data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContainer, err)
	}

	var incoming models.VaultContainer
	if err := json.Unmarshal(data, &incoming); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContainer, err)
	}

	next := incoming
	if merge {
		existing, err := s.containers.Load(ctx)
		if err != nil {
			return err
		}

		// existing records win over incoming duplicates; the container
		// keeps its own version string
		next = existing
		for _, sealed := range incoming.Records {
			if findRecord(next.Records, sealed.ID, sealed.RecordType) < 0 {
				next.Records = append(next.Records, sealed)
			}
		}
	}

	if err := s.containers.Save(ctx, next); err != nil {
		return err
	}

	s.logger.Info().
		Str("func", "recordService.Import").
		Int("incoming_records", len(incoming.Records)).
		Int("total_records", len(next.Records)).
		Bool("merge", merge).
		Msg("container import applied")

	return nil
}

// seal envelope-encrypts one record: the payload goes under a fresh record
// key, the record key goes under the session key. The raw record key lives
// only for the duration of this call.
func (s *recordService) seal(record models.Record, sessionKey *crypto.Key) (models.SecureRecord, error) {
	payload, err := json.Marshal(record.Data)
	if err != nil {
		return models.SecureRecord{}, fmt.Errorf("encode record payload: %w", err)
	}

	recordKey, err := s.keychain.GenerateRecordKey()
	if err != nil {
		return models.SecureRecord{}, fmt.Errorf("%w: generate record key: %w", ErrCrypto, err)
	}
	defer recordKey.Destroy()

	wrappedData, err := s.keychain.Encrypt(payload, recordKey)
	if err != nil {
		return models.SecureRecord{}, fmt.Errorf("%w: encrypt record payload: %w", ErrCrypto, err)
	}

	wrappedKey, err := s.keychain.WrapKey(recordKey, sessionKey)
	if err != nil {
		return models.SecureRecord{}, fmt.Errorf("%w: wrap record key: %w", ErrCrypto, err)
	}

	return models.SecureRecord{
		ID:           record.ID,
		RecordType:   record.Type,
		WrappedData:  wrappedData,
		WrappedKey:   wrappedKey,
		LastModified: time.Now().UnixMilli(),
	}, nil
}

// open reverses seal. Any failure means the record is unreadable under the
// current session key, with no distinction between tampering and key
// mismatch.
func (s *recordService) open(sealed models.SecureRecord, sessionKey *crypto.Key) (models.Record, error) {
	recordKey, err := s.keychain.UnwrapKey(sealed.WrappedKey, sessionKey)
	if err != nil {
		return models.Record{}, fmt.Errorf("unwrap record key: %w", err)
	}
	defer recordKey.Destroy()

	payload, err := s.keychain.Decrypt(sealed.WrappedData, recordKey)
	if err != nil {
		return models.Record{}, fmt.Errorf("decrypt record payload: %w", err)
	}

	return models.Record{
		ID:           sealed.ID,
		Type:         sealed.RecordType,
		Data:         json.RawMessage(payload),
		LastModified: time.UnixMilli(sealed.LastModified),
	}, nil
}

// findRecord returns the index of the record with the given id and type, or
// -1. Identity is always the (id, type) pair: the same id under two types is
// two records.
func findRecord(records []models.SecureRecord, id string, recordType models.RecordType) int {
	for i, sealed := range records {
		if sealed.ID == id && sealed.RecordType == recordType {
			return i
		}
	}
	return -1
}

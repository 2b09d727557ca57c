package calendar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gyeo009/lookback-Backend/internal/vault"
)

// payloadField holds the JSON-encoded list inside the Vault secret.
const payloadField = "payload"

// VaultStore keeps calendar lists in a Vault KV v1 mount.
type VaultStore struct {
	kv *vault.KVv1
}

func NewVaultStore(kv *vault.KVv1) *VaultStore {
	return &VaultStore{kv: kv}
}

func (s *VaultStore) Put(ctx context.Context, list *List) error {
	value, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode calendar list: %w", err)
	}
	return s.kv.Write(ctx, Key(list.Email), map[string]any{payloadField: string(value)})
}

func (s *VaultStore) Get(ctx context.Context, email string) (*List, error) {
	data, err := s.kv.Read(ctx, Key(email))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}

	raw, ok := data[payloadField].(string)
	if !ok {
		return nil, fmt.Errorf("calendar list for %s has no %s field", email, payloadField)
	}

	var list List
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode calendar list for %s: %w", email, err)
	}
	return &list, nil
}

func (s *VaultStore) Close() error { return nil }

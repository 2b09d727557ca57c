// Package vault provides a small HashiCorp Vault client with a KV v1 helper.
package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// KVv1 provides helpers for working with Vault KV v1 secrets engine.
type KVv1 struct {
	client    *Client
	mountPath string
}

// NewKVv1 creates a new KV v1 helper.
func NewKVv1(client *Client, mountPath string) *KVv1 {
	return &KVv1{
		client:    client,
		mountPath: mountPath,
	}
}

// Path returns the full Vault path for a key under the mount.
func (kv *KVv1) Path(path string) string {
	return fmt.Sprintf("%s/%s", kv.mountPath, path)
}

// Write writes a secret to KV v1 with retry logic.
func (kv *KVv1) Write(ctx context.Context, path string, data map[string]any) error {
	fullPath := kv.Path(path)

	_, err := retryWithBackoff(ctx, fmt.Sprintf("write %s", fullPath), func() (*api.Secret, error) {
		return kv.client.client.Logical().WriteWithContext(ctx, fullPath, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write secret to %s: %w", fullPath, err)
	}

	return nil
}

// Read reads a secret from KV v1 with retry logic. A missing secret returns (nil, nil).
func (kv *KVv1) Read(ctx context.Context, path string) (map[string]any, error) {
	fullPath := kv.Path(path)

	secret, err := retryWithBackoff(ctx, fmt.Sprintf("read %s", fullPath), func() (*api.Secret, error) {
		return kv.client.client.Logical().ReadWithContext(ctx, fullPath)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", fullPath, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	return secret.Data, nil
}

/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package secrets keeps the engine's secret material (the monitoring API
// token and TLS-PSK keys) in one encrypted file. The file is sealed with
// AES-256-GCM under a key derived from an operator passphrase with
// argon2id; the decrypted map lives in memory for the process lifetime.
package secrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	fileVersion = 1
	saltLength  = 16
	filePerms   = 0o600

	// KeyAPIToken names the monitoring server API token.
	KeyAPIToken = "zabbix_api_token"

	pskPrefix = "tls_psk/"
)

var (
	// ErrSecretNotFound is returned when the store holds no such secret.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrPassphraseRequired is returned when an empty passphrase is given.
	ErrPassphraseRequired = errors.New("passphrase is required")

	// ErrBadPassphrase is returned when the file cannot be unsealed with
	// the given passphrase.
	ErrBadPassphrase = errors.New("passphrase does not unseal the secret file")

	// ErrStoreExists is returned when Create would overwrite a file.
	ErrStoreExists = errors.New("secret file already exists")
)

// KDFParams are the argon2id work factors recorded in the file so older
// files stay readable when the defaults move.
type KDFParams struct {
	Memory      uint32 `json:"memory"`
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

var defaultKDFParams = KDFParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
}

type secretFile struct {
	Version int       `json:"version"`
	Salt    string    `json:"salt"`
	KDF     KDFParams `json:"kdf"`
	Payload string    `json:"payload"`
}

// Store holds the decrypted secrets and writes every change back to the
// sealed file. It provides the token and TLS-PSK capabilities consumed
// by the monitoring client and the payload builder.
type Store struct {
	mu      sync.RWMutex
	path    string
	cipher  *Cipher
	salt    []byte
	params  KDFParams
	secrets map[string]string
}

// Create initializes a new sealed secret file. It refuses to overwrite
// an existing one.
func Create(path, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreExists, path)
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	cipher, err := NewCipher(deriveKey(passphrase, salt, defaultKDFParams))
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:    path,
		cipher:  cipher,
		salt:    salt,
		params:  defaultKDFParams,
		secrets: map[string]string{},
	}

	if err := s.persist(); err != nil {
		return nil, err
	}

	return s, nil
}

// Open unseals an existing secret file.
func Open(path, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}

	var file secretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse secret file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	cipher, err := NewCipher(deriveKey(passphrase, salt, file.KDF))
	if err != nil {
		return nil, err
	}

	payload, err := cipher.Decrypt(file.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadPassphrase, path)
	}

	secrets := map[string]string{}
	if err := json.Unmarshal(payload, &secrets); err != nil {
		return nil, fmt.Errorf("parse secret payload: %w", err)
	}

	return &Store{
		path:    path,
		cipher:  cipher,
		salt:    salt,
		params:  file.KDF,
		secrets: secrets,
	}, nil
}

// Get returns a secret by name.
func (s *Store) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.secrets[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}

	return value, nil
}

// Set stores a secret and reseals the file.
func (s *Store) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secrets[name] = value

	return s.persist()
}

// Delete removes a secret and reseals the file. Deleting an unknown name
// is not an error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.secrets, name)

	return s.persist()
}

// Names returns the stored secret names sorted, for operator listings.
// Values are never listed.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.secrets))
	for name := range s.secrets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Token implements the monitoring client's token provider.
func (s *Store) Token(_ context.Context) (string, error) {
	return s.Get(KeyAPIToken)
}

// TLSPSK implements the payload builder's secret source, resolving PSK
// material by identity.
func (s *Store) TLSPSK(identity string) (string, error) {
	return s.Get(PSKKey(identity))
}

// PSKKey returns the store key for a TLS-PSK identity.
func PSKKey(identity string) string {
	return pskPrefix + identity
}

// persist reseals the secret map and replaces the file atomically.
// Callers hold the write lock.
func (s *Store) persist() error {
	payload, err := json.Marshal(s.secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	sealed, err := s.cipher.Encrypt(payload)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(secretFile{
		Version: fileVersion,
		Salt:    base64.StdEncoding.EncodeToString(s.salt),
		KDF:     s.params,
		Payload: sealed,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secret file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerms); err != nil {
		return fmt.Errorf("write secret file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace secret file: %w", err)
	}

	return nil
}

func deriveKey(passphrase string, salt []byte, params KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, params.Iterations, params.Memory, params.Parallelism, keyLength)
}

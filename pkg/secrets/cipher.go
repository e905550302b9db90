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

package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	keyLength   = 32
	nonceLength = 12
)

var (
	// ErrInvalidKeyLength indicates the derived key is not the required size.
	ErrInvalidKeyLength = errors.New("encryption key must be 32 bytes")

	// ErrCiphertextTooShort indicates the payload is shorter than the nonce.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Cipher seals secret payloads with AES-256-GCM. The nonce is prepended
// to the ciphertext and the whole blob is base64-encoded for the file.
type Cipher struct {
	key []byte
}

// NewCipher constructs a Cipher from the given key bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keyLength {
		return nil, ErrInvalidKeyLength
	}

	buf := make([]byte, keyLength)
	copy(buf, key)

	return &Cipher{key: buf}, nil
}

// Encrypt seals plaintext and returns a base64 payload.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

// Decrypt reverses Encrypt and returns the original plaintext bytes.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	if len(payload) < nonceLength {
		return nil, ErrCiphertextTooShort
	}

	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, payload[:nonceLength], payload[nonceLength:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}

	return plaintext, nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return gcm, nil
}

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

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/secrets"
)

func TestRunShowsHelp(t *testing.T) {
	require.NoError(t, Run(nil))
	require.NoError(t, Run([]string{"help"}))
	require.NoError(t, Run([]string{"--help"}))
}

func TestRunUnknownCommand(t *testing.T) {
	t.Parallel()

	err := Run([]string{"frobnicate"})
	require.ErrorIs(t, err, errUnknownCommand)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestInitSetListRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "secrets.json")

	require.NoError(t, Run([]string{"init", "-file", file, "-key", "correct horse"}))

	require.NoError(t, Run([]string{
		"set", "-file", file, "-key", "correct horse",
		"-name", secrets.KeyAPIToken, "-value", "tok-123",
	}))
	require.NoError(t, Run([]string{
		"set-psk", "-file", file, "-key", "correct horse",
		"-identity", "edge-fw-01", "-value", "aabbccdd",
	}))
	require.NoError(t, Run([]string{"list", "-file", file, "-key", "correct horse"}))

	store, err := secrets.Open(file, "correct horse")
	require.NoError(t, err)

	token, err := store.Get(secrets.KeyAPIToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	psk, err := store.TLSPSK("edge-fw-01")
	require.NoError(t, err)
	assert.Equal(t, "aabbccdd", psk)

	require.NoError(t, Run([]string{
		"rm", "-file", file, "-key", "correct horse", "-name", secrets.KeyAPIToken,
	}))

	reopened, err := secrets.Open(file, "correct horse")
	require.NoError(t, err)

	_, err = reopened.Get(secrets.KeyAPIToken)
	require.ErrorIs(t, err, secrets.ErrSecretNotFound)
}

func TestInitRefusesOverwrite(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "secrets.json")

	require.NoError(t, Run([]string{"init", "-file", file, "-key", "pass"}))

	err := Run([]string{"init", "-file", file, "-key", "pass"})
	require.ErrorIs(t, err, secrets.ErrStoreExists)
}

func TestSetRequiresName(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "secrets.json")

	err := Run([]string{"set", "-file", file, "-key", "pass", "-value", "tok"})
	require.ErrorIs(t, err, errNameRequired)
}

func TestSetPSKRequiresIdentity(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "secrets.json")

	err := Run([]string{"set-psk", "-file", file, "-key", "pass", "-value", "aabb"})
	require.ErrorIs(t, err, errIdentityRequired)
}

func TestListMissingStore(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "absent.json")

	err := Run([]string{"list", "-file", file, "-key", "pass"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open secret store")
}

func TestResolvePassphrasePrefersFlag(t *testing.T) {
	t.Setenv(passphraseEnv, "from-env")

	keyFile := filepath.Join(t.TempDir(), "pass.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("from-file\nsecond line\n"), 0o600))

	pass, err := resolvePassphrase(&CmdConfig{Key: "from-flag", KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", pass)

	pass, err = resolvePassphrase(&CmdConfig{KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "from-file", pass)

	pass, err = resolvePassphrase(&CmdConfig{})
	require.NoError(t, err)
	assert.Equal(t, "from-env", pass)
}

func TestResolvePassphraseTrimsKeyFile(t *testing.T) {
	t.Parallel()

	keyFile := filepath.Join(t.TempDir(), "pass.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("  padded  \n"), 0o600))

	pass, err := resolvePassphrase(&CmdConfig{KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "padded", pass)
}

func TestResolvePassphraseMissing(t *testing.T) {
	t.Setenv(passphraseEnv, "")

	_, err := resolvePassphrase(&CmdConfig{})
	require.ErrorIs(t, err, errKeyRequired)
}

func TestResolvePassphraseUnreadableKeyFile(t *testing.T) {
	t.Parallel()

	_, err := resolvePassphrase(&CmdConfig{KeyFile: filepath.Join(t.TempDir(), "absent.key")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read key file")
}

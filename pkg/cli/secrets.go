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
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/monbridge/monbridge/pkg/secrets"
)

const (
	defaultStorePath = "/etc/monbridge/secrets.json"

	// passphraseEnv names the environment fallback for the store passphrase.
	passphraseEnv = "MONBRIDGE_SECRETS_KEY"
)

// storeFlags registers the flags shared by every subcommand.
func storeFlags(fs *flag.FlagSet, cfg *CmdConfig) {
	fs.StringVar(&cfg.StoreFile, "file", defaultStorePath, "Path to the sealed secret file")
	fs.StringVar(&cfg.Key, "key", "", "Store passphrase (prefer -key-file or "+passphraseEnv+")")
	fs.StringVar(&cfg.KeyFile, "key-file", "", "File whose first line is the store passphrase")
}

// InitHandler handles flags for the init subcommand.
type InitHandler struct{}

// Parse processes arguments for init.
func (InitHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	storeFlags(fs, cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing init flags: %w", err)
	}

	return nil
}

// RunInit creates an empty sealed secret store.
func RunInit(cfg *CmdConfig) error {
	passphrase, err := resolvePassphrase(cfg)
	if err != nil {
		return err
	}

	if _, err := secrets.Create(cfg.StoreFile, passphrase); err != nil {
		return fmt.Errorf("create secret store: %w", err)
	}

	fmt.Printf("Created empty secret store at %s\n", cfg.StoreFile)

	return nil
}

// SetHandler handles flags for the set subcommand.
type SetHandler struct{}

// Parse processes arguments for set.
func (SetHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	storeFlags(fs, cfg)
	fs.StringVar(&cfg.Name, "name", "", "Secret name (the monitoring API token is "+secrets.KeyAPIToken+")")
	fs.StringVar(&cfg.Value, "value", "", "Secret value; read from stdin when omitted")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing set flags: %w", err)
	}

	return nil
}

// RunSet seals one secret into the store.
func RunSet(cfg *CmdConfig) error {
	if cfg.Name == "" {
		return errNameRequired
	}

	return sealValue(cfg, cfg.Name)
}

// SetPSKHandler handles flags for the set-psk subcommand.
type SetPSKHandler struct{}

// Parse processes arguments for set-psk.
func (SetPSKHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("set-psk", flag.ExitOnError)
	storeFlags(fs, cfg)
	fs.StringVar(&cfg.Identity, "identity", "", "TLS-PSK identity the material is sealed under")
	fs.StringVar(&cfg.Value, "value", "", "PSK hex value; read from stdin when omitted")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing set-psk flags: %w", err)
	}

	return nil
}

// RunSetPSK seals TLS-PSK material under its identity.
func RunSetPSK(cfg *CmdConfig) error {
	if cfg.Identity == "" {
		return errIdentityRequired
	}

	return sealValue(cfg, secrets.PSKKey(cfg.Identity))
}

// RemoveHandler handles flags for the rm subcommand.
type RemoveHandler struct{}

// Parse processes arguments for rm.
func (RemoveHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	storeFlags(fs, cfg)
	fs.StringVar(&cfg.Name, "name", "", "Secret name")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing rm flags: %w", err)
	}

	return nil
}

// RunRemove deletes a secret from the store.
func RunRemove(cfg *CmdConfig) error {
	if cfg.Name == "" {
		return errNameRequired
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	if err := store.Delete(cfg.Name); err != nil {
		return fmt.Errorf("remove secret: %w", err)
	}

	fmt.Printf("Removed %s from %s\n", cfg.Name, cfg.StoreFile)

	return nil
}

// ListHandler handles flags for the list subcommand.
type ListHandler struct{}

// Parse processes arguments for list.
func (ListHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	storeFlags(fs, cfg)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing list flags: %w", err)
	}

	return nil
}

// RunList prints the stored secret names. Values are never printed.
func RunList(cfg *CmdConfig) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	for _, name := range store.Names() {
		fmt.Println(name)
	}

	return nil
}

func sealValue(cfg *CmdConfig, name string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	value, err := resolveValue(cfg)
	if err != nil {
		return err
	}

	if err := store.Set(name, value); err != nil {
		return fmt.Errorf("seal secret: %w", err)
	}

	fmt.Printf("Sealed %s into %s\n", name, cfg.StoreFile)

	return nil
}

func openStore(cfg *CmdConfig) (*secrets.Store, error) {
	passphrase, err := resolvePassphrase(cfg)
	if err != nil {
		return nil, err
	}

	store, err := secrets.Open(cfg.StoreFile, passphrase)
	if err != nil {
		return nil, fmt.Errorf("open secret store: %w", err)
	}

	return store, nil
}

// resolvePassphrase prefers the explicit flag, then the key file's first
// line, then the environment.
func resolvePassphrase(cfg *CmdConfig) (string, error) {
	if cfg.Key != "" {
		return cfg.Key, nil
	}

	if cfg.KeyFile != "" {
		raw, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return "", fmt.Errorf("read key file: %w", err)
		}

		line, _, _ := strings.Cut(string(raw), "\n")
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}

	if key := os.Getenv(passphraseEnv); key != "" {
		return key, nil
	}

	return "", errKeyRequired
}

// resolveValue takes the flag value or reads stdin, so tokens stay out of
// shell history.
func resolveValue(cfg *CmdConfig) (string, error) {
	if cfg.Value != "" {
		return cfg.Value, nil
	}

	if isInputFromTerminal() {
		return "", errValueRequired
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read value from stdin: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", errValueRequired
	}

	return value, nil
}

func isInputFromTerminal() bool {
	fileInfo, _ := os.Stdin.Stat()

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

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

// Package cli implements the operator tool for the sealed secret store
// consumed by the bridge service.
package cli

import "fmt"

// SubcommandHandler parses the flags of one subcommand into a CmdConfig.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	SubCmd    string
	StoreFile string
	Key       string
	KeyFile   string
	Name      string
	Identity  string
	Value     string
}

// Run parses and executes one invocation.
func Run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-help" || args[0] == "--help" {
		ShowHelp()
		return nil
	}

	cfg := &CmdConfig{SubCmd: args[0]}

	subcommands := map[string]SubcommandHandler{
		"init":    InitHandler{},
		"set":     SetHandler{},
		"set-psk": SetPSKHandler{},
		"rm":      RemoveHandler{},
		"list":    ListHandler{},
	}

	handler, exists := subcommands[cfg.SubCmd]
	if !exists {
		return fmt.Errorf("%w: %q", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return err
	}

	switch cfg.SubCmd {
	case "init":
		return RunInit(cfg)
	case "set":
		return RunSet(cfg)
	case "set-psk":
		return RunSetPSK(cfg)
	case "rm":
		return RunRemove(cfg)
	default:
		return RunList(cfg)
	}
}

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

import "fmt"

// ShowHelp displays the help message.
func ShowHelp() {
	fmt.Print(`monbridge-cli: manage the monbridge sealed secret store
Usage: monbridge-cli <command> [options]

Commands:
  init      Create an empty secret store
  set       Seal a named secret into the store
  set-psk   Seal a TLS PSK for a host identity
  rm        Remove a secret from the store
  list      List secret names (values are never printed)
  help      Show this help message

Common options:
  -file string
        Path to the secret store (default "/etc/monbridge/secrets.json")
  -key string
        Store passphrase
  -key-file string
        File whose first line is the store passphrase

The passphrase may also be supplied via the MONBRIDGE_SECRETS_KEY
environment variable. Flags take precedence over the environment.

Options for set:
  -name string
        Secret name
  -value string
        Secret value (read from stdin when omitted)

Options for set-psk:
  -identity string
        Host PSK identity
  -value string
        PSK hex key (read from stdin when omitted)

Options for rm:
  -name string
        Secret name

Examples:
  monbridge-cli init -file /etc/monbridge/secrets.json -key-file /etc/monbridge/secrets.key
  echo "$ZABBIX_TOKEN" | monbridge-cli set -name zabbix_api_token -key-file /etc/monbridge/secrets.key
  monbridge-cli set-psk -identity edge-fw-01 -value 1a2b3c4d -key-file /etc/monbridge/secrets.key
  monbridge-cli list -key-file /etc/monbridge/secrets.key
`)
}

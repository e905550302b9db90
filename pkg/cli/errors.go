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

import "errors"

var (
	errUnknownCommand   = errors.New("unknown command")
	errKeyRequired      = errors.New("store passphrase required via -key, -key-file, or " + passphraseEnv)
	errNameRequired     = errors.New("-name is required")
	errIdentityRequired = errors.New("-identity is required")
	errValueRequired    = errors.New("secret value required via -value or stdin")
)

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

package db

import "errors"

var (

	// Operation errors.

	ErrFailedToScan   = errors.New("failed to scan")
	ErrFailedToQuery  = errors.New("failed to query")
	ErrFailedToInsert = errors.New("failed to insert")
	ErrFailedToUpdate = errors.New("failed to update")
	ErrFailedToDelete = errors.New("failed to delete")
	ErrFailedToInit   = errors.New("failed to initialize schema")
	ErrFailedOpenDB   = errors.New("failed to open database")

	// Lookup errors.

	ErrHostConfigNotFound  = errors.New("host configuration not found")
	ErrRuleNotFound        = errors.New("mapping rule not found")
	ErrMaintenanceNotFound = errors.New("maintenance window not found")

	// Uniqueness violations surfaced as typed errors.

	ErrHostConfigExists = errors.New("host configuration already exists for object")
	ErrRuleNameExists   = errors.New("mapping rule name already taken")

	// Validation errors.

	ErrHostConfigNil  = errors.New("host configuration is nil")
	ErrRuleNil        = errors.New("mapping rule is nil")
	ErrMaintenanceNil = errors.New("maintenance window is nil")
	ErrJobLinkNil     = errors.New("job link is nil")

	// TLS helpers.

	ErrLackingTLSFiles = errors.New("database tls requires cert_file, key_file, and ca_file")
	ErrAppendCACert    = errors.New("database tls: unable to append CA certificate")
)

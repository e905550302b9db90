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

package zabbix

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHostNotFound indicates the server has no host for the requested
	// identifier or technical name.
	ErrHostNotFound = errors.New("host not found on monitoring server")

	// ErrEmptyResult indicates a call succeeded but returned no result
	// payload where one was required.
	ErrEmptyResult = errors.New("empty result from monitoring server")

	// ErrNameNotFound indicates a catalog lookup found no object with the
	// requested name.
	ErrNameNotFound = errors.New("name not found in server catalog")

	// ErrMissingEndpoint indicates the client was constructed without a
	// server endpoint.
	ErrMissingEndpoint = errors.New("monitoring server endpoint is required")

	// ErrMissingCredentials indicates no token and no username/password
	// pair was supplied.
	ErrMissingCredentials = errors.New("monitoring server credentials are required")

	errInvalidID            = errors.New("invalid identifier")
	errUnexpectedStatusCode = errors.New("unexpected status code")
)

// APIError is an error object returned inside a JSON-RPC response envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("api error %d: %s: %s", e.Code, e.Message, e.Data)
}

// IsNotFound reports whether err indicates the referenced object is gone on
// the server. Reads surface this as an empty result mapped to
// ErrHostNotFound; writes surface it as a permission error object.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrHostNotFound) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Data, "does not exist")
	}

	return false
}

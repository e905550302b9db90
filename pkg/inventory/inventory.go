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

// Package inventory defines the read-only surface the reconciliation core
// uses to reach the source-of-truth system.
package inventory

import (
	"context"
	"errors"

	"github.com/monbridge/monbridge/pkg/models"
)

//go:generate mockgen -destination=mock_inventory.go -package=inventory github.com/monbridge/monbridge/pkg/inventory Provider

var (
	// ErrObjectNotFound indicates the referenced object no longer exists in
	// the inventory system.
	ErrObjectNotFound = errors.New("inventory object not found")

	// ErrUnknownKind indicates an object reference with a kind the provider
	// does not serve.
	ErrUnknownKind = errors.New("unknown inventory object kind")
)

// Provider fetches normalized inventory objects. GetObject returns a fully
// hydrated record including interfaces and their addresses; ListObjects
// returns the collection without per-object interface hydration, enough for
// rule matching and previews.
type Provider interface {
	GetObject(ctx context.Context, ref models.ObjectRef) (*models.InventoryObject, error)
	ListObjects(ctx context.Context, kind models.ObjectKind) ([]*models.InventoryObject, error)
}

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

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InterfaceFilter restricts which interface types a mapping rule applies to.
type InterfaceFilter int64

const (
	InterfaceFilterAny   InterfaceFilter = 0
	InterfaceFilterAgent InterfaceFilter = InterfaceFilter(InterfaceTypeAgent)
	InterfaceFilterSNMP  InterfaceFilter = InterfaceFilter(InterfaceTypeSNMP)
)

func (f InterfaceFilter) String() string {
	switch f {
	case InterfaceFilterAny:
		return "any"
	case InterfaceFilterAgent:
		return "agent"
	case InterfaceFilterSNMP:
		return "snmp"
	default:
		return fmt.Sprintf("filter(%d)", int64(f))
	}
}

// Accepts reports whether a rule carrying this filter survives a match
// request for the given interface filter. A rule filter survives when it is
// unrestricted or equals the requested filter.
func (f InterfaceFilter) Accepts(requested InterfaceFilter) bool {
	return f == InterfaceFilterAny || f == requested
}

// MappingRule maps a slice of the inventory onto monitoring parameters.
// Non-default rules select objects through their filter sets; an empty set
// matches anything, so at least one set must be non-empty. Default rules
// carry no filters and act as the fallback for their object kind. Kind may
// be empty, in which case the rule applies to every object kind.
type MappingRule struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Kind            ObjectKind      `json:"kind,omitempty"`
	Default         bool            `json:"default"`
	SiteIDs         []int64         `json:"site_ids,omitempty"`
	RoleIDs         []int64         `json:"role_ids,omitempty"`
	PlatformIDs     []int64         `json:"platform_ids,omitempty"`
	InterfaceFilter InterfaceFilter `json:"interface_filter"`
	HostGroupIDs    []int64         `json:"host_group_ids"`
	TemplateIDs     []int64         `json:"template_ids"`
	ProxyID         int64           `json:"proxy_id,omitempty"`
	ProxyGroupID    int64           `json:"proxy_group_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

var (
	// ErrRuleNameMissing is returned when a rule has no name.
	ErrRuleNameMissing = errors.New("rule name is required")

	// ErrRuleProxyConflict is returned when a rule assigns both a proxy
	// and a proxy group.
	ErrRuleProxyConflict = errors.New("rule assigns both proxy and proxy group")

	// ErrRuleWithoutFilters is returned when a non-default rule has no
	// non-empty filter set; such a rule would shadow the default rule.
	ErrRuleWithoutFilters = errors.New("non-default rule requires at least one filter")

	// ErrDefaultRuleHasFilters is returned when a default rule carries
	// filter sets.
	ErrDefaultRuleHasFilters = errors.New("default rule must not carry filters")

	// ErrDuplicateDefaultRule is returned when a second default rule for
	// the same object kind would be stored.
	ErrDuplicateDefaultRule = errors.New("default rule already exists for object kind")

	// ErrDefaultRuleDelete is returned when deletion of a default rule is
	// attempted.
	ErrDefaultRuleDelete = errors.New("default rule cannot be deleted")
)

// Validate checks the rule invariants.
func (r *MappingRule) Validate() error {
	if r.Name == "" {
		return ErrRuleNameMissing
	}

	if r.ProxyID != 0 && r.ProxyGroupID != 0 {
		return fmt.Errorf("%w: rule %q", ErrRuleProxyConflict, r.Name)
	}

	if r.Default {
		if r.Specificity() != 0 || r.InterfaceFilter != InterfaceFilterAny {
			return fmt.Errorf("%w: rule %q", ErrDefaultRuleHasFilters, r.Name)
		}

		return nil
	}

	if r.Specificity() == 0 && r.InterfaceFilter == InterfaceFilterAny {
		return fmt.Errorf("%w: rule %q", ErrRuleWithoutFilters, r.Name)
	}

	return nil
}

// AppliesTo reports whether the rule is in scope for the given object kind.
func (r *MappingRule) AppliesTo(kind ObjectKind) bool {
	return r.Kind == "" || r.Kind == kind
}

// MatchesObject reports whether every non-empty filter set of the rule
// contains the corresponding attribute of the object. Objects lacking an
// attribute never satisfy a non-empty set over it.
func (r *MappingRule) MatchesObject(obj *InventoryObject) bool {
	if !r.AppliesTo(obj.Ref.Kind) {
		return false
	}

	if !idSetMatches(r.SiteIDs, obj.SiteID()) {
		return false
	}

	if !idSetMatches(r.RoleIDs, obj.RoleID()) {
		return false
	}

	return idSetMatches(r.PlatformIDs, obj.PlatformID())
}

// Specificity is the number of non-empty filter sets. A higher value means
// a narrower rule; the matcher prefers narrower rules.
func (r *MappingRule) Specificity() int {
	n := 0

	if len(r.SiteIDs) > 0 {
		n++
	}

	if len(r.RoleIDs) > 0 {
		n++
	}

	if len(r.PlatformIDs) > 0 {
		n++
	}

	return n
}

// MonitoredByMode derives the monitoring mode the rule implies from its
// proxy assignment.
func (r *MappingRule) MonitoredByMode() MonitoredBy {
	switch {
	case r.ProxyID != 0:
		return MonitoredByProxy
	case r.ProxyGroupID != 0:
		return MonitoredByProxyGroup
	default:
		return MonitoredByServer
	}
}

func idSetMatches(set []int64, id int64) bool {
	if len(set) == 0 {
		return true
	}

	if id == 0 {
		return false
	}

	for _, v := range set {
		if v == id {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the rule.
func (r *MappingRule) Clone() *MappingRule {
	if r == nil {
		return nil
	}

	out := *r

	if r.SiteIDs != nil {
		out.SiteIDs = append([]int64(nil), r.SiteIDs...)
	}

	if r.RoleIDs != nil {
		out.RoleIDs = append([]int64(nil), r.RoleIDs...)
	}

	if r.PlatformIDs != nil {
		out.PlatformIDs = append([]int64(nil), r.PlatformIDs...)
	}

	if r.HostGroupIDs != nil {
		out.HostGroupIDs = append([]int64(nil), r.HostGroupIDs...)
	}

	if r.TemplateIDs != nil {
		out.TemplateIDs = append([]int64(nil), r.TemplateIDs...)
	}

	return &out
}

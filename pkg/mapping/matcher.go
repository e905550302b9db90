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

package mapping

import (
	"errors"
	"fmt"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

var (
	// ErrNoDefaultRule is returned when no rule matches an object and no
	// default rule exists for its kind. This is a fatal configuration
	// gap, never silently skipped.
	ErrNoDefaultRule = errors.New("no mapping rule matches and no default rule exists")

	// ErrAmbiguousRules is returned when two non-default rules of equal
	// specificity both match an object. The rule set must be narrowed;
	// picking one silently would make provisioning order-dependent.
	ErrAmbiguousRules = errors.New("equally specific mapping rules match")
)

// Matcher ranks a rule set against inventory objects. The rule set is
// read-only for the lifetime of the matcher; construct a new one after rule
// changes.
type Matcher struct {
	rules  []*models.MappingRule
	logger logger.Logger
}

// NewMatcher builds a matcher over the given rule set.
func NewMatcher(rules []*models.MappingRule, log logger.Logger) *Matcher {
	return &Matcher{rules: rules, logger: log}
}

// Match returns the winning rule for the object under the given interface
// filter. Non-default rules survive when their interface filter accepts the
// request and every non-empty filter set contains the object's attribute;
// the survivor with the most non-empty filter sets wins. When no non-default
// rule survives, the default rule for the object's kind is returned.
func (m *Matcher) Match(obj *models.InventoryObject, filter models.InterfaceFilter) (*models.MappingRule, error) {
	var (
		best     *models.MappingRule
		bestRank = -1
		tied     *models.MappingRule
	)

	for _, rule := range m.rules {
		if rule.Default {
			continue
		}

		if !rule.InterfaceFilter.Accepts(filter) {
			continue
		}

		if !rule.MatchesObject(obj) {
			continue
		}

		rank := rule.Specificity()

		switch {
		case rank > bestRank:
			best = rule
			bestRank = rank
			tied = nil
		case rank == bestRank:
			tied = rule
		}
	}

	if best != nil {
		if tied != nil {
			m.logger.Warn().
				Str("object", obj.Ref.String()).
				Str("rule_a", best.Name).
				Str("rule_b", tied.Name).
				Int("specificity", bestRank).
				Msg("ambiguous mapping rules")

			return nil, fmt.Errorf("%w: %q and %q on %s", ErrAmbiguousRules, best.Name, tied.Name, obj.Ref)
		}

		return best, nil
	}

	return m.defaultRule(obj)
}

func (m *Matcher) defaultRule(obj *models.InventoryObject) (*models.MappingRule, error) {
	for _, rule := range m.rules {
		if rule.Default && rule.AppliesTo(obj.Ref.Kind) {
			return rule, nil
		}
	}

	return nil, fmt.Errorf("%w: kind %q", ErrNoDefaultRule, obj.Ref.Kind)
}

// MatchingObjects returns the objects for which the given rule is the
// winning match. Linear over the candidate set; used for rule previews, not
// in the reconciliation path.
func (m *Matcher) MatchingObjects(rule *models.MappingRule, objs []*models.InventoryObject) []*models.InventoryObject {
	var out []*models.InventoryObject

	for _, obj := range objs {
		winner, err := m.Match(obj, rule.InterfaceFilter)
		if err != nil {
			continue
		}

		if winner.ID == rule.ID {
			out = append(out, obj)
		}
	}

	return out
}

// ValidateRuleSet checks every rule and the cross-rule invariant that each
// object kind has at most one default rule. A kind-unscoped default rule
// counts for every kind.
func ValidateRuleSet(rules []*models.MappingRule) error {
	defaults := make(map[models.ObjectKind]*models.MappingRule)

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return err
		}

		if !rule.Default {
			continue
		}

		kinds := []models.ObjectKind{rule.Kind}
		if rule.Kind == "" {
			kinds = []models.ObjectKind{models.KindDevice, models.KindVirtualMachine}
		}

		for _, kind := range kinds {
			if prev, ok := defaults[kind]; ok {
				return fmt.Errorf("%w: %q and %q both default for %q",
					models.ErrDuplicateDefaultRule, prev.Name, rule.Name, kind)
			}

			defaults[kind] = rule
		}
	}

	return nil
}

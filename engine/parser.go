/*
 * Copyright 2024 The WeaveGo Authors.
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

package engine

import (
	"fmt"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/builtin/advice"
	"github.com/weavego/weavego/builtin/matcher"
	"github.com/weavego/weavego/utils/json"
)

// Registry is the default registry for advice components.
var Registry = new(ComponentRegistry)

// init registers the built-in advice components to the default registry.
func init() {
	for _, component := range advice.Registry.Components() {
		_ = Registry.Register(component)
	}
}

// ParseAdvisorChain decodes a JSON advisor chain definition.
func ParseAdvisorChain(dsl []byte) (types.AdvisorChain, error) {
	var def types.AdvisorChain
	err := json.Unmarshal(dsl, &def)
	return def, err
}

// LoadAdvisors parses dsl and registers the resulting advisors. Component
// instantiation, configuration decoding and pointcut compilation all happen
// here, at setup time; a broken definition fails the load instead of the
// first call.
func LoadAdvisors(config types.Config, registry *AdvisorRegistry, dsl []byte) error {
	def, err := ParseAdvisorChain(dsl)
	if err != nil {
		return err
	}
	for _, advisorDef := range def.Advisors {
		advisor, err := NewAdvisorFromDef(config, advisorDef)
		if err != nil {
			return err
		}
		if err = registry.Register(advisor); err != nil {
			return err
		}
	}
	return nil
}

// NewAdvisorFromDef instantiates one advisor from its definition: the advice
// component is created from the components registry and initialized with the
// definition configuration, and the pointcut is compiled into a matcher.
func NewAdvisorFromDef(config types.Config, def *types.AdvisorDefinition) (*types.Advisor, error) {
	componentsRegistry := config.ComponentsRegistry
	if componentsRegistry == nil {
		componentsRegistry = Registry
	}
	component, err := componentsRegistry.NewAdvice(def.Type)
	if err != nil {
		return nil, fmt.Errorf("advisor %q: %w", def.Id, err)
	}
	if err = component.Init(config, def.Configuration); err != nil {
		return nil, fmt.Errorf("advisor %q init: %w", def.Id, err)
	}
	m, err := buildMatcher(def)
	if err != nil {
		return nil, fmt.Errorf("advisor %q pointcut: %w", def.Id, err)
	}
	return &types.Advisor{
		Id:      def.Id,
		Matcher: m,
		Advice:  component,
		Order:   def.Order,
	}, nil
}

// buildMatcher compiles the definition's method patterns and pointcut
// expression. Both present means both must match; neither present matches
// every method.
func buildMatcher(def *types.AdvisorDefinition) (types.Matcher, error) {
	var matchers []types.Matcher
	if len(def.Methods) > 0 {
		matchers = append(matchers, matcher.NewNameMatcher(def.Methods...))
	}
	if def.Pointcut != "" {
		em, err := matcher.NewExprMatcher(def.Pointcut)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, em)
	}
	switch len(matchers) {
	case 0:
		return matcher.All(), nil
	case 1:
		return matchers[0], nil
	default:
		return matcher.And(matchers...), nil
	}
}

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

package matcher

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/weavego/weavego/api/types"
)

// ExprMatcher evaluates an expression pointcut against join point metadata.
// The expression environment exposes:
//
//	targetType     string   - target type, e.g. "*service.UserService"
//	declaringType  string   - declaring type (interface under the interface strategy)
//	methodName     string   - method name
//	params         []string - parameter type names
//	returns        []string - result type names
//	paramCount     int      - number of parameters
//	args           []any    - runtime arguments, only during runtime refinement
//
// The names steer clear of the expression language's builtins; `type` in
// particular is a builtin function there and cannot double as a variable.
//
// Example: `methodName startsWith "Get" && targetType contains "UserService"`.
//
// An expression referencing `args` makes the matcher argument sensitive: it
// participates statically in every chain its other conditions allow and is
// refined against the actual arguments on each call.
type ExprMatcher struct {
	Expression string

	program  *vm.Program
	usesArgs bool
}

var _ types.Matcher = (*ExprMatcher)(nil)
var _ types.RuntimeMatcher = (*ExprMatcher)(nil)

// NewExprMatcher compiles the expression. Compilation failures surface here,
// at setup time.
func NewExprMatcher(expression string) (*ExprMatcher, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &ExprMatcher{
		Expression: expression,
		program:    program,
		usesArgs:   strings.Contains(expression, "args"),
	}, nil
}

// Matches evaluates the expression against the static descriptor. Argument
// sensitive expressions match statically and defer to MatchesRuntime.
func (m *ExprMatcher) Matches(method types.Method) bool {
	if m.usesArgs {
		return true
	}
	return m.run(method, nil)
}

// MatchesRuntime evaluates the expression with the call arguments bound.
func (m *ExprMatcher) MatchesRuntime(method types.Method, args []interface{}) bool {
	return m.run(method, args)
}

func (m *ExprMatcher) run(method types.Method, args []interface{}) bool {
	params := make([]string, len(method.ParamTypes))
	for i, p := range method.ParamTypes {
		params[i] = p.String()
	}
	returns := make([]string, len(method.ReturnTypes))
	for i, r := range method.ReturnTypes {
		returns[i] = r.String()
	}
	if args == nil {
		args = []interface{}{}
	}
	env := map[string]interface{}{
		"targetType":    method.TargetType.String(),
		"declaringType": method.DeclaringType.String(),
		"methodName":    method.Name,
		"params":        params,
		"returns":       returns,
		"paramCount":    len(method.ParamTypes),
		"args":          args,
	}
	out, err := expr.Run(m.program, env)
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

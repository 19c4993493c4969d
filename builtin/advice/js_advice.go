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

package advice

import (
	"errors"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/utils/js"
	"github.com/weavego/weavego/utils/maps"
)

// JsFuncName is the function a script advice body must define.
const JsFuncName = "OnCall"

var _ types.AroundAdvice = (*JsAdvice)(nil)

// JsAdviceConfiguration holds the script advice parameters.
type JsAdviceConfiguration struct {
	// JsScript is the advice body. It must define
	//
	//	function OnCall(inv) {
	//	    // inspect inv.Args(), maybe inv.SetArg(i, v)
	//	    var r = inv.Proceed();
	//	    return r;
	//	}
	//
	// Not calling inv.Proceed() vetoes the target call and the function's
	// return value becomes the invocation result. When the continuation
	// fails, Proceed returns null, inv.Failed() reports true and the
	// original error resurfaces to the caller unchanged.
	JsScript string
}

// JsAdvice is an Around advice whose body is a JavaScript function, executed
// on a pooled goja runtime. Go functions registered through
// Config.RegisterUdf and the global properties are callable from the script.
type JsAdvice struct {
	Config   JsAdviceConfiguration
	jsEngine *js.GojaJsEngine
}

func (a *JsAdvice) New() types.AdviceComponent {
	return &JsAdvice{}
}

func (a *JsAdvice) Type() string {
	return "js"
}

func (a *JsAdvice) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &a.Config); err != nil {
		return err
	}
	if a.Config.JsScript == "" {
		return errors.New("js advice requires a jsScript configuration")
	}
	jsEngine, err := js.NewGojaJsEngine(config, a.Config.JsScript, 0)
	if err != nil {
		return err
	}
	a.jsEngine = jsEngine
	return nil
}

func (a *JsAdvice) Around(inv types.Invocation) (interface{}, error) {
	scriptInv := &scriptInvocation{inv: inv}
	out, execErr := a.jsEngine.Execute(JsFuncName, scriptInv)
	if execErr != nil {
		return nil, execErr
	}
	if scriptInv.err != nil {
		// Keep the original failure identity; the script observed it but
		// cannot replace it.
		return nil, scriptInv.err
	}
	return out, nil
}

// scriptInvocation is the invocation view handed to the script. Method names
// are exported so goja can reach them; inside the script they read as
// inv.Proceed(), inv.Args() and so on.
type scriptInvocation struct {
	inv    types.Invocation
	result interface{}
	err    error
}

// MethodName returns the name of the intercepted method.
func (s *scriptInvocation) MethodName() string {
	return s.inv.Method().Name
}

// Args returns the current argument values.
func (s *scriptInvocation) Args() []interface{} {
	return s.inv.Arguments()
}

// SetArg replaces an argument before the continuation consumes it.
func (s *scriptInvocation) SetArg(index int, value interface{}) {
	s.inv.SetArgument(index, value)
}

// Proceed continues the chain and returns the result, or null when the
// continuation failed.
func (s *scriptInvocation) Proceed() interface{} {
	s.result, s.err = s.inv.Proceed()
	if s.err != nil {
		return nil
	}
	return s.result
}

// Failed reports whether the continuation failed.
func (s *scriptInvocation) Failed() bool {
	return s.err != nil
}

// Error returns the failure message, or the empty string.
func (s *scriptInvocation) Error() string {
	if s.err != nil {
		return s.err.Error()
	}
	return ""
}

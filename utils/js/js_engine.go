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

// Package js provides JavaScript execution capabilities for script advice.
//
// It wraps the goja library: compiled programs are shared, while runtimes
// are pooled and reused across invocations. User defined Go functions from
// Config.Udf and global properties from Config.Properties are installed
// into every runtime.
package js

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/weavego/weavego/api/types"
)

const (
	// GlobalKey is the object holding Config.Properties inside scripts,
	// reachable as global.xx.
	GlobalKey = "global"
)

// GojaJsEngine executes a precompiled script body and exposes its functions
// to Go callers.
type GojaJsEngine struct {
	vmPool   chan *goja.Runtime
	config   types.Config
	jsScript *goja.Program
}

// NewGojaJsEngine compiles jsScript and prepares a pool of poolSize runtimes
// with the script evaluated. The script defines the functions later invoked
// through Execute.
func NewGojaJsEngine(config types.Config, jsScript string, poolSize int) (*GojaJsEngine, error) {
	program, err := goja.Compile("", jsScript, true)
	if err != nil {
		return nil, err
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	engine := &GojaJsEngine{
		vmPool:   make(chan *goja.Runtime, poolSize),
		config:   config,
		jsScript: program,
	}
	// Initialize one runtime eagerly so compile-and-run failures surface at
	// setup time rather than on the first call.
	vm, err := engine.newVm()
	if err != nil {
		return nil, err
	}
	engine.vmPool <- vm
	return engine, nil
}

// newVm creates a runtime with properties, udf functions and the main
// script installed.
func (g *GojaJsEngine) newVm() (*goja.Runtime, error) {
	vm := goja.New()

	if len(g.config.Properties) != 0 {
		if err := vm.Set(GlobalKey, g.config.Properties); err != nil {
			return nil, fmt.Errorf("set global properties error: %w", err)
		}
	}
	for k, v := range g.config.Udf {
		if err := vm.Set(k, v); err != nil {
			return nil, fmt.Errorf("set udf %s error: %w", k, err)
		}
	}

	timer := g.startTimeout(vm)
	_, err := vm.RunProgram(g.jsScript)
	g.stopTimeout(timer)
	if err != nil {
		return nil, err
	}
	return vm, nil
}

// Execute calls functionName defined by the script with the given
// arguments. A script panic or interrupt is returned as an error.
func (g *GojaJsEngine) Execute(functionName string, argumentList ...interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm, err := g.getVm()
	if err != nil {
		return nil, err
	}
	defer g.putVm(vm)

	var timer *time.Timer
	if g.config.ScriptMaxExecutionTime > 0 {
		timer = g.startTimeout(vm)
		defer g.stopTimeout(timer)
	}

	f, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return nil, errors.New(functionName + " is not a function")
	}

	var params []goja.Value
	if len(argumentList) > 0 {
		params = make([]goja.Value, len(argumentList))
		for i, v := range argumentList {
			params[i] = vm.ToValue(v)
		}
	}

	res, err := f(goja.Undefined(), params...)
	if err != nil {
		return nil, err
	}
	return res.Export(), nil
}

func (g *GojaJsEngine) getVm() (*goja.Runtime, error) {
	select {
	case vm := <-g.vmPool:
		vm.ClearInterrupt()
		return vm, nil
	default:
		return g.newVm()
	}
}

func (g *GojaJsEngine) putVm(vm *goja.Runtime) {
	select {
	case g.vmPool <- vm:
	default:
		// Pool full, drop the runtime.
	}
}

// startTimeout starts a timeout for JS script execution using
// time.AfterFunc. Returns nil if timeout is not configured.
func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *time.Timer {
	if g.config.ScriptMaxExecutionTime <= 0 {
		return nil
	}
	return time.AfterFunc(g.config.ScriptMaxExecutionTime, func() {
		vm.Interrupt("execution timeout")
	})
}

// stopTimeout stops the timeout timer.
func (g *GojaJsEngine) stopTimeout(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

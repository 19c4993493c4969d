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

package js

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weavego/weavego/api/types"
)

func TestJsEngineExecute(t *testing.T) {
	config := types.NewConfig()
	engine, err := NewGojaJsEngine(config, `function Add(a, b) { return a + b; }`, 1)
	assert.Nil(t, err)

	out, err := engine.Execute("Add", 2, 3)
	assert.Nil(t, err)
	assert.Equal(t, int64(5), out)

	_, err = engine.Execute("Missing")
	assert.NotNil(t, err)
}

func TestJsEngineCompileError(t *testing.T) {
	_, err := NewGojaJsEngine(types.NewConfig(), `function Broken( {`, 1)
	assert.NotNil(t, err)
}

func TestJsEngineGlobalProperties(t *testing.T) {
	config := types.NewConfig(types.WithProperties(map[string]interface{}{
		"env": "prod",
	}))
	engine, err := NewGojaJsEngine(config, `function Env() { return global.env; }`, 1)
	assert.Nil(t, err)
	out, err := engine.Execute("Env")
	assert.Nil(t, err)
	assert.Equal(t, "prod", out)
}

func TestJsEngineUdf(t *testing.T) {
	config := types.NewConfig()
	config.RegisterUdf("upper", strings.ToUpper)
	engine, err := NewGojaJsEngine(config, `function Shout(s) { return upper(s) + "!"; }`, 1)
	assert.Nil(t, err)
	out, err := engine.Execute("Shout", "hey")
	assert.Nil(t, err)
	assert.Equal(t, "HEY!", out)
}

func TestJsEngineTimeout(t *testing.T) {
	config := types.NewConfig(types.WithScriptMaxExecutionTime(200 * time.Millisecond))
	engine, err := NewGojaJsEngine(config, `function Spin() { while (true) {} }`, 1)
	assert.Nil(t, err)
	start := time.Now()
	_, err = engine.Execute("Spin")
	assert.NotNil(t, err)
	assert.True(t, time.Since(start) < 5*time.Second)
}

func TestJsEngineConcurrentExecute(t *testing.T) {
	engine, err := NewGojaJsEngine(types.NewConfig(), `function Echo(s) { return s; }`, 2)
	assert.Nil(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := engine.Execute("Echo", "v")
			assert.Nil(t, err)
			assert.Equal(t, "v", out)
		}()
	}
	wg.Wait()
}

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
	"context"

	"github.com/weavego/weavego/api/types"
)

// currentProxyKey is the context key carrying the proxy handling the call in
// flight. The context is per call, so two concurrent calls on the same proxy
// never observe each other's slot, and the previous value is restored simply
// by the child context going out of scope.
type currentProxyKey struct{}

// withCurrentProxy derives a context exposing p as the active proxy. Only
// proxies created with exposure enabled ever call this.
func withCurrentProxy(ctx context.Context, p types.Proxy) context.Context {
	return context.WithValue(ctx, currentProxyKey{}, p)
}

// CurrentProxy returns the proxy handling the call in flight, for code
// inside a target method that wants to call another intercepted method on
// itself. Self-invocation through the raw receiver would bypass the chain;
// calling through the returned proxy routes back into it.
//
// It returns types.ErrNoActiveProxy when ctx carries no exposed proxy,
// either because the call did not come through a proxy or because the proxy
// was created without WithExposure.
func CurrentProxy(ctx context.Context) (types.Proxy, error) {
	if ctx == nil {
		return nil, types.ErrNoActiveProxy
	}
	if p, ok := ctx.Value(currentProxyKey{}).(types.Proxy); ok && p != nil {
		return p, nil
	}
	return nil, types.ErrNoActiveProxy
}

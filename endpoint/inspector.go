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

// Package endpoint provides the read-only inspector endpoint: registered
// advisors and proxies as JSON over HTTP, and a websocket stream of
// invocation trace events. It is never started implicitly.
package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/engine"
	"github.com/weavego/weavego/utils/json"
)

const (
	// ContentTypeKey is the HTTP header name for content type.
	ContentTypeKey = "Content-Type"
	// JsonContextType is the JSON content type value.
	JsonContextType = "application/json"
)

// AdvisorView is the JSON shape of one registered advisor.
type AdvisorView struct {
	Id      string `json:"id"`
	Order   int    `json:"order"`
	Advice  string `json:"advice"`
	Matcher string `json:"matcher"`
}

// ProxyView is the JSON shape of one registered proxy.
type ProxyView struct {
	TargetType string   `json:"targetType"`
	Strategy   string   `json:"strategy"`
	Methods    []string `json:"methods"`
}

// TraceEvent is one invocation debug event pushed to websocket clients.
type TraceEvent struct {
	InvocationId string `json:"invocationId"`
	FlowType     string `json:"flowType"`
	Method       string `json:"method"`
	Args         string `json:"args"`
	Result       string `json:"result,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Inspector serves the inspection API for one advisor registry and the
// proxies registered with it.
type Inspector struct {
	Config   types.Config
	Registry *engine.AdvisorRegistry
	// Addr is the listen address, e.g. ":9092".
	Addr string

	router   *httprouter.Router
	server   *http.Server
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	proxies []types.Proxy
	clients map[*websocket.Conn]struct{}
}

// NewInspector creates an inspector for registry listening on addr.
func NewInspector(config types.Config, registry *engine.AdvisorRegistry, addr string) *Inspector {
	inspector := &Inspector{
		Config:   config,
		Registry: registry,
		Addr:     addr,
		router:   httprouter.New(),
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	inspector.router.GET("/api/v1/advisors", inspector.advisors)
	inspector.router.GET("/api/v1/proxies", inspector.proxyList)
	inspector.router.GET("/ws/trace", inspector.trace)
	return inspector
}

// AddProxy registers a proxy for the /api/v1/proxies view.
func (x *Inspector) AddProxy(p types.Proxy) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.proxies = append(x.proxies, p)
}

// Router returns the underlying router, to mount the inspector into an
// existing server instead of starting its own.
func (x *Inspector) Router() http.Handler {
	return x.router
}

// OnDebug is the invocation debug hook feeding the trace stream. Install it
// with types.WithOnDebug when building the Config used by the proxies to
// inspect.
func (x *Inspector) OnDebug(flowType string, invocationId string, method types.Method, args []interface{}, result interface{}, err error) {
	x.mu.RLock()
	hasClients := len(x.clients) > 0
	x.mu.RUnlock()
	if !hasClients {
		return
	}
	event := TraceEvent{
		InvocationId: invocationId,
		FlowType:     flowType,
		Method:       method.Key(),
		Args:         fmt.Sprintf("%v", args),
	}
	if flowType == types.Out {
		event.Result = fmt.Sprintf("%v", result)
		if err != nil {
			event.Error = err.Error()
		}
	}
	x.broadcast(event)
}

// Start begins serving in a background goroutine. Listen errors after
// startup are reported through the logger.
func (x *Inspector) Start() error {
	if x.server != nil {
		return nil
	}
	x.server = &http.Server{Addr: x.Addr, Handler: x.router}
	go func() {
		if err := x.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			x.Config.Logger.Printf("inspector endpoint stopped: %v", err)
		}
	}()
	return nil
}

// GracefulShutdown stops the server and closes all websocket clients.
func (x *Inspector) GracefulShutdown(ctx context.Context) error {
	x.mu.Lock()
	for conn := range x.clients {
		_ = conn.Close()
	}
	x.clients = make(map[*websocket.Conn]struct{})
	x.mu.Unlock()
	if x.server == nil {
		return nil
	}
	return x.server.Shutdown(ctx)
}

func (x *Inspector) advisors(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	var views []AdvisorView
	for _, advisor := range x.Registry.Advisors() {
		views = append(views, AdvisorView{
			Id:      advisor.Id,
			Order:   advisor.Order,
			Advice:  adviceName(advisor.Advice),
			Matcher: fmt.Sprintf("%T", advisor.Matcher),
		})
	}
	x.writeJson(w, views)
}

func (x *Inspector) proxyList(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	x.mu.RLock()
	proxies := make([]types.Proxy, len(x.proxies))
	copy(proxies, x.proxies)
	x.mu.RUnlock()

	var views []ProxyView
	for _, p := range proxies {
		methods := p.Methods()
		names := make([]string, len(methods))
		for i, m := range methods {
			names[i] = m.Key()
		}
		views = append(views, ProxyView{
			TargetType: p.TargetType().String(),
			Strategy:   string(p.Strategy()),
			Methods:    names,
		})
	}
	x.writeJson(w, views)
}

func (x *Inspector) trace(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := x.upgrader.Upgrade(w, r, nil)
	if err != nil {
		x.Config.Logger.Printf("inspector websocket upgrade failed: %v", err)
		return
	}
	x.mu.Lock()
	x.clients[conn] = struct{}{}
	x.mu.Unlock()

	// Drain control frames until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				x.mu.Lock()
				delete(x.clients, conn)
				x.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func (x *Inspector) broadcast(event TraceEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for conn := range x.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(x.clients, conn)
			_ = conn.Close()
		}
	}
}

func (x *Inspector) writeJson(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set(ContentTypeKey, JsonContextType)
	_, _ = w.Write(data)
}

// adviceName prefers the component type of a configurable advice over its
// Go type.
func adviceName(advice types.Advice) string {
	if component, ok := advice.(types.AdviceComponent); ok {
		return component.Type()
	}
	return fmt.Sprintf("%T", advice)
}

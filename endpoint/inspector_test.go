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

package endpoint

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/engine"
	"github.com/weavego/weavego/utils/json"
)

type clockService struct{}

func (s *clockService) Now() string {
	return time.Now().Format(time.RFC3339)
}

func newInspectorFixture(t *testing.T) (*Inspector, *engine.DefaultProxy, *httptest.Server) {
	registry := engine.NewAdvisorRegistry(types.NewConfig())
	inspector := NewInspector(types.NewConfig(), registry, ":0")
	config := types.NewConfig(types.WithOnDebug(inspector.OnDebug))
	assert.Nil(t, engine.LoadAdvisors(config, registry, []byte(`
{
  "advisors": [
    {"id": "s1", "type": "log", "order": 1, "methods": ["Now"]}
  ]
}
`)))
	proxy, err := engine.NewProxy(&clockService{}, config, registry)
	assert.Nil(t, err)
	inspector.AddProxy(proxy)
	server := httptest.NewServer(inspector.Router())
	return inspector, proxy, server
}

func TestInspectorAdvisors(t *testing.T) {
	_, _, server := newInspectorFixture(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/advisors")
	assert.Nil(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, JsonContextType, resp.Header.Get(ContentTypeKey))

	body, err := io.ReadAll(resp.Body)
	assert.Nil(t, err)
	var views []AdvisorView
	assert.Nil(t, json.Unmarshal(body, &views))
	assert.Equal(t, 1, len(views))
	assert.Equal(t, "s1", views[0].Id)
	assert.Equal(t, 1, views[0].Order)
	assert.Equal(t, "log", views[0].Advice)
}

func TestInspectorProxies(t *testing.T) {
	_, _, server := newInspectorFixture(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/proxies")
	assert.Nil(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.Nil(t, err)
	var views []ProxyView
	assert.Nil(t, json.Unmarshal(body, &views))
	assert.Equal(t, 1, len(views))
	assert.Equal(t, "*endpoint.clockService", views[0].TargetType)
	assert.Equal(t, "struct", views[0].Strategy)
	assert.Equal(t, 1, len(views[0].Methods))
	assert.True(t, strings.Contains(views[0].Methods[0], "Now"))
}

func TestInspectorTraceStream(t *testing.T) {
	inspector, proxy, server := newInspectorFixture(t)
	defer server.Close()

	wsUrl := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/trace"
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	assert.Nil(t, err)
	defer func() { _ = conn.Close() }()

	// Give the server a moment to register the client.
	time.Sleep(100 * time.Millisecond)

	_, err = proxy.Call(context.Background(), "Now")
	assert.Nil(t, err)

	assert.Nil(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	assert.Nil(t, err)
	var event TraceEvent
	assert.Nil(t, json.Unmarshal(data, &event))
	assert.Equal(t, types.In, event.FlowType)
	assert.True(t, strings.Contains(event.Method, "Now"))
	assert.NotEqual(t, "", event.InvocationId)

	_, data, err = conn.ReadMessage()
	assert.Nil(t, err)
	assert.Nil(t, json.Unmarshal(data, &event))
	assert.Equal(t, types.Out, event.FlowType)
	assert.NotEqual(t, "", event.Result)

	assert.Nil(t, inspector.GracefulShutdown(context.Background()))
}

func TestInspectorNoClientsIsCheap(t *testing.T) {
	inspector, proxy, server := newInspectorFixture(t)
	defer server.Close()

	// No websocket client: the debug hook is a no-op and the call still
	// works.
	_, err := proxy.Call(context.Background(), "Now")
	assert.Nil(t, err)
	assert.Nil(t, inspector.GracefulShutdown(context.Background()))
}

package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/circuit"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/navigation"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/shared/id"
)

type testServer struct {
	server   *httptest.Server
	registry *circuit.Registry
	metrics  *monitoring.Metrics
	baseURI  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	table, err := routing.NewTable([]routing.Route{
		{Pattern: "/", Handler: "Index"},
		{Pattern: "/counter", Handler: "Counter"},
		{Pattern: "/docs/**", Handler: "Docs"},
	})
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	registry := circuit.NewRegistry(table, nil, metrics)
	handler := NewHandler(registry, Config{BasePath: "/app/"}, nil, metrics)

	router := gin.New()
	router.GET("/_circuit", handler.HandleConnection)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{
		server:   server,
		registry: registry,
		metrics:  metrics,
		baseURI:  server.URL + "/app/",
	}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/_circuit"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func expectArm(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	msg := receive(t, conn)
	assert.Equal(t, TypeInvoke, msg.Type)
	assert.Equal(t, navigation.EnableInterceptionIdentifier, msg.Identifier)
	assert.Equal(t, []any{"ComponentHost", "NotifyLocationChanged"}, msg.Args)
}

func TestStartArmsAndRoutes(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	send(t, conn, ClientMessage{Type: TypeStart, Location: ts.baseURI + "counter?step=2"})

	circ := receive(t, conn)
	require.Equal(t, TypeCircuit, circ.Type)
	assert.True(t, strings.HasPrefix(circ.CircuitID, "circ_"))

	expectArm(t, conn)

	render := receive(t, conn)
	assert.Equal(t, TypeRender, render.Type)
	assert.Equal(t, "Counter", render.Handler)

	send(t, conn, ClientMessage{Type: TypeLocationChanged, URI: ts.baseURI + "docs/intro/setup"})
	assert.Equal(t, "Docs", receive(t, conn).Handler)

	send(t, conn, ClientMessage{Type: TypeLocationChanged, URI: ts.baseURI + "missing"})
	notFound := receive(t, conn)
	assert.Equal(t, TypeNotFound, notFound.Type)
	assert.Equal(t, ts.baseURI+"missing", notFound.URI)

	send(t, conn, ClientMessage{Type: TypeLocationChanged, URI: "http://elsewhere.test/"})
	outside := receive(t, conn)
	assert.Equal(t, TypeError, outside.Type)
	assert.Contains(t, outside.Message, "http://elsewhere.test/")

	send(t, conn, ClientMessage{Type: TypePing})
	assert.Equal(t, TypePong, receive(t, conn).Type)

	assert.Equal(t, 2.0, testutil.ToFloat64(ts.metrics.RouteResolutions.WithLabelValues("matched")))
}

func TestBaseWithoutTrailingSlashRoutesToRoot(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	send(t, conn, ClientMessage{Type: TypeStart, BaseURI: ts.baseURI, Location: strings.TrimSuffix(ts.baseURI, "/")})
	receive(t, conn)
	expectArm(t, conn)
	assert.Equal(t, "Index", receive(t, conn).Handler)
}

func TestClientBaseURIGetsTrailingSlash(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	send(t, conn, ClientMessage{
		Type:     TypeStart,
		BaseURI:  ts.server.URL + "/app",
		Location: ts.baseURI + "counter",
	})

	circ := receive(t, conn)
	require.Equal(t, TypeCircuit, circ.Type, circ.Message)
	expectArm(t, conn)

	render := receive(t, conn)
	assert.Equal(t, TypeRender, render.Type)
	assert.Equal(t, "Counter", render.Handler)

	cid, err := id.ParseCircuitID(circ.CircuitID)
	require.NoError(t, err)
	registered, err := ts.registry.Get(cid)
	require.NoError(t, err)
	assert.Equal(t, ts.baseURI, registered.BaseURI())
}

func TestResumeRearmsInterception(t *testing.T) {
	ts := newTestServer(t)

	first := ts.dial(t)
	send(t, first, ClientMessage{Type: TypeStart})
	circuitID := receive(t, first).CircuitID
	expectArm(t, first)
	first.Close()

	// Wait for the server to notice the disconnect
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(ts.metrics.WSConnections) == 0
	}, 2*time.Second, 10*time.Millisecond)

	second := ts.dial(t)
	send(t, second, ClientMessage{Type: TypeStart, CircuitID: circuitID, Location: ts.baseURI})

	resumed := receive(t, second)
	assert.Equal(t, TypeCircuit, resumed.Type)
	assert.Equal(t, circuitID, resumed.CircuitID)
	expectArm(t, second)
	assert.Equal(t, "Index", receive(t, second).Handler)
	assert.Equal(t, 1, ts.registry.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(ts.metrics.InterceptionArms.WithLabelValues("remote")))
}

func TestProtocolErrors(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	send(t, conn, ClientMessage{Type: TypeLocationChanged, URI: ts.baseURI})
	assert.Equal(t, "no circuit", receive(t, conn).Message)

	send(t, conn, ClientMessage{Type: TypeStart, CircuitID: "circ_01ARZ3NDEKTSV4RRFFQ69G5FAV"})
	assert.Equal(t, circuit.ErrNotFound.Error(), receive(t, conn).Message)

	send(t, conn, ClientMessage{Type: TypeStart, CircuitID: "bogus"})
	assert.Equal(t, TypeError, receive(t, conn).Type)

	send(t, conn, ClientMessage{Type: "shout"})
	assert.Equal(t, "unknown message type", receive(t, conn).Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "malformed message", receive(t, conn).Message)

	send(t, conn, ClientMessage{Type: TypeStart})
	assert.Equal(t, TypeCircuit, receive(t, conn).Type)
	expectArm(t, conn)
	send(t, conn, ClientMessage{Type: TypeStart})
	assert.Equal(t, "circuit already started", receive(t, conn).Message)
}

func TestRequestBaseURI(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/_circuit", nil)
	req.Host = "host.test:8000"
	assert.Equal(t, "http://host.test:8000/app/", requestBaseURI(req, "app"))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://host.test:8000/", requestBaseURI(req, "/"))
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(nil, Config{AllowedOrigins: []string{"https://app.test"}}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/_circuit", nil)
	req.Header.Set("Origin", "https://app.test")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.test")
	assert.False(t, h.checkOrigin(req))

	open := NewHandler(nil, Config{}, nil, nil)
	assert.True(t, open.checkOrigin(req))
}

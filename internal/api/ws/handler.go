package ws

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/circuit"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/shared/id"
)

const maxMessageSize = 64 * 1024

// Config configures the circuit endpoint
type Config struct {
	// BasePath is the application base path used when a client does not
	// send its base URI, e.g. "/app/"
	BasePath string
	// AllowedOrigins restricts the Origin header; empty or "*" allows all
	AllowedOrigins []string
}

// Handler serves the circuit WebSocket endpoint
type Handler struct {
	registry *circuit.Registry
	config   Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *circuit.Registry, config Config, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BasePath == "" {
		config.BasePath = "/"
	}

	h := &Handler{
		registry: registry,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origins := h.config.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return true
	}
	return slices.Contains(origins, r.Header.Get("Origin"))
}

// session is the per-connection state of the read loop
type session struct {
	conn    *Conn
	circuit *circuit.Circuit
	logger  *zap.Logger
}

// HandleConnection upgrades the request and serves circuit messages until
// the browser disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	wsConn.SetReadLimit(maxMessageSize)

	conn := newConn(wsConn, h.metrics)
	s := &session{
		conn:   conn,
		logger: h.logger.With(zap.String("conn_id", conn.ID)),
	}

	h.metrics.IncWSConnections()
	s.logger.Info("WebSocket connected", zap.String("client_ip", c.ClientIP()))
	defer func() {
		conn.Close()
		if s.circuit != nil {
			s.circuit.Detach(conn)
		}
		h.metrics.DecWSConnections()
		s.logger.Info("WebSocket disconnected")
	}()

	defaultBase := requestBaseURI(c.Request, h.config.BasePath)

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			conn.sendError("malformed message")
			continue
		}

		msgType := msg.Type
		switch msg.Type {
		case TypeStart:
			h.handleStart(s, msg, defaultBase)
		case TypeLocationChanged:
			h.handleLocationChanged(s, msg)
		case TypePing:
			conn.Send(ServerMessage{Type: TypePong})
		default:
			msgType = "unknown"
			conn.sendError("unknown message type")
		}
		h.metrics.RecordWSMessage("in", msgType)
	}
}

func (h *Handler) handleStart(s *session, msg ClientMessage, defaultBase string) {
	if s.circuit != nil {
		s.conn.sendError("circuit already started")
		return
	}

	var (
		circ *circuit.Circuit
		err  error
	)
	if msg.CircuitID != "" {
		circ, err = h.resume(msg.CircuitID)
	} else {
		baseURI := msg.BaseURI
		if baseURI == "" {
			baseURI = defaultBase
		} else if !strings.HasSuffix(baseURI, "/") {
			baseURI += "/"
		}
		circ, err = h.registry.Create(baseURI)
	}
	if err != nil {
		s.logger.Warn("Failed to start circuit", zap.Error(err))
		s.conn.sendError(err.Error())
		return
	}

	s.circuit = circ
	s.logger = s.logger.With(zap.String("circuit_id", circ.ID.String()))

	if err := s.conn.Send(ServerMessage{Type: TypeCircuit, CircuitID: circ.ID.String()}); err != nil {
		return
	}
	// Attaching replays the pending interception request on this connection
	if err := circ.Attach(s.conn); err != nil {
		s.conn.sendError(err.Error())
		return
	}

	if msg.Location != "" {
		h.route(s, msg.Location)
	}
}

func (h *Handler) resume(raw string) (*circuit.Circuit, error) {
	cid, err := id.ParseCircuitID(raw)
	if err != nil {
		return nil, err
	}
	return h.registry.Get(cid)
}

func (h *Handler) handleLocationChanged(s *session, msg ClientMessage) {
	if s.circuit == nil {
		s.conn.sendError("no circuit")
		return
	}
	h.route(s, msg.URI)
}

func (h *Handler) route(s *session, uri string) {
	handler, err := s.circuit.Route(uri)

	var notContained *routing.URINotContainedError
	switch {
	case errors.As(err, &notContained):
		s.conn.Send(ServerMessage{Type: TypeError, URI: uri, Message: notContained.Error()})
	case err != nil:
		s.logger.Error("Route failed", zap.String("uri", uri), zap.Error(err))
		s.conn.sendError(err.Error())
	case handler == routing.NoMatch:
		s.conn.Send(ServerMessage{Type: TypeNotFound, URI: uri})
	default:
		s.conn.Send(ServerMessage{Type: TypeRender, URI: uri, Handler: string(handler)})
	}
}

// requestBaseURI builds the absolute base URI a browser on this host sees
func requestBaseURI(r *http.Request, basePath string) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return scheme + "://" + r.Host + basePath
}

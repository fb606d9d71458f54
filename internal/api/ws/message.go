package ws

// Client message types
const (
	TypeStart           = "start"
	TypeLocationChanged = "location_changed"
	TypePing            = "ping"
)

// Server message types
const (
	TypeCircuit  = "circuit"
	TypeInvoke   = "invoke"
	TypeRender   = "render"
	TypeNotFound = "not_found"
	TypeError    = "error"
	TypePong     = "pong"
)

// ClientMessage is a frame sent by the browser
type ClientMessage struct {
	Type      string `json:"type"`
	CircuitID string `json:"circuitId,omitempty"`
	BaseURI   string `json:"baseUri,omitempty"`
	Location  string `json:"location,omitempty"`
	URI       string `json:"uri,omitempty"`
}

// ServerMessage is a frame sent to the browser
type ServerMessage struct {
	Type       string `json:"type"`
	CircuitID  string `json:"circuitId,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Args       []any  `json:"args,omitempty"`
	URI        string `json:"uri,omitempty"`
	Handler    string `json:"handler,omitempty"`
	Message    string `json:"message,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

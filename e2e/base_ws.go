package e2e

import (
	"encoding/json"
	"fmt"
	"morse-lab/auth"
	"morse-lab/domain"
	"morse-lab/gateway"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseWSSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWSSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set")
	}
}

// RoomName gives every run its own rooms on a shared server.
func (s *BaseWSSuite) RoomName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Station is one connected operator.
type Station struct {
	suite    *BaseWSSuite
	name     string
	conn     *websocket.Conn
	mu       sync.Mutex
	messages []gateway.Outbound
	frames   int
	closed   chan struct{}
}

// Dial connects id to room, with a colorized header in the test logs.
func (s *BaseWSSuite) Dial(name, room string, id domain.Identity, query url.Values) *Station {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s (%s) ======", name, id.Callsign())
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	// 2. Identity from a token when the server checks them
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if s.Config.AuthSecret != "" {
		token, err := auth.NewSigner(s.Config.AuthSecret, time.Hour).GenerateToken(id)
		s.Require().NoError(err)
		q.Set("token", token)
	} else {
		q.Set("realm", id.RealmID)
		q.Set("user", id.UserID)
	}

	u := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws/rooms/" + room, RawQuery: q.Encode()}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to connect to "+u.Redacted())

	st := &Station{suite: s, name: name, conn: conn, closed: make(chan struct{})}
	go st.read()
	s.T().Cleanup(func() {
		_ = conn.Close()
		<-st.closed
	})
	return st
}

func (st *Station) read() {
	defer close(st.closed)
	for {
		kind, data, err := st.conn.ReadMessage()
		if err != nil {
			return
		}
		st.mu.Lock()
		if kind == websocket.BinaryMessage {
			st.frames++
			st.mu.Unlock()
			continue
		}
		var out gateway.Outbound
		if err := json.Unmarshal(data, &out); err == nil {
			st.messages = append(st.messages, out)
		}
		st.mu.Unlock()
		// Log full JSON notifications if E2E_DEBUG_JSON is enabled
		if st.suite.Config.DebugJSON {
			st.suite.T().Logf("%s <- %s", st.name, data)
		}
	}
}

func (st *Station) Send(in gateway.Inbound) {
	st.suite.Require().NoError(st.conn.WriteJSON(in))
}

func (st *Station) Frames() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.frames
}

// Await waits for a notification of typ whose payload field equals value.
func (st *Station) Await(typ, field, value string) {
	st.suite.Require().Eventuallyf(func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		for _, out := range st.messages {
			payload, _ := out.Payload.(map[string]any)
			got, _ := payload[field].(string)
			if out.Type == typ && (field == "" || strings.Contains(got, value)) {
				return true
			}
		}
		return false
	}, 10*time.Second, 20*time.Millisecond, "%s never got %s %s=%q", st.name, typ, field, value)
}

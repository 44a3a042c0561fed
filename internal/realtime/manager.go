package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Manager provides an API for managing websocket connections. Connections
// are grouped into rooms keyed by user ID so that server-initiated events
// can be addressed to "all connections belonging to user X".
//
// NOTE: this memory store needs to be replaced by a data store that allows
// for horizontal scaling.
type Manager struct {
	sync.RWMutex
	readLimit int64 // Max allowed bytes for msg reads

	rooms map[uint]map[string]*wsContext // [userID][connID]
}

// wsContext is the per-connection state.
type wsContext struct {
	conn   *websocket.Conn
	connID string
	userID uint
	joined map[uint]struct{} // rooms this connection is a member of
	sendC  chan []byte
	done   chan struct{}
	once   sync.Once
}

func (wc *wsContext) close() {
	wc.once.Do(func() {
		close(wc.done)
		wc.conn.Close()
	})
}

// Envelope is the wire format for both directions.
type Envelope struct {
	Event  string          `json:"event"`
	UserID uint            `json:"user_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// NewManager returns a new websocket Manager.
func NewManager(readLimit int64) *Manager {
	return &Manager{
		readLimit: readLimit,
		rooms:     make(map[uint]map[string]*wsContext),
	}
}

// HandleWebsocket upgrades an already-authenticated HTTP connection to a
// websocket and joins it to the caller's own room. It blocks until the
// connection is gone.
func (m *Manager) HandleWebsocket(w http.ResponseWriter, r *http.Request, userID uint) {
	upgrader := websocket.Upgrader{
		EnableCompression: true,
		CheckOrigin:       func(*http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Could not open websocket connection", http.StatusBadRequest)
		return
	}

	wc := &wsContext{
		conn:   conn,
		connID: uuid.NewString(),
		userID: userID,
		joined: make(map[uint]struct{}),
		sendC:  make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	defer wc.close()

	conn.SetReadLimit(m.readLimit)

	m.joinRoom(wc, userID)
	defer m.leaveAll(wc)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.readLoop(wc)
	}()
	go func() {
		defer wg.Done()
		m.writeLoop(wc)
	}()
	wg.Wait()
}

// readLoop reads commands off the socket. The only inbound command is
// "join", which adds the connection to another user's room. The join is
// taken at face value; ownership of the target user ID is not re-verified.
func (m *Manager) readLoop(wc *wsContext) {
	defer wc.close()

	for {
		_, data, err := wc.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WS_BAD_MESSAGE: conn=%s error=%v", wc.connID, err)
			return
		}

		switch msg.Event {
		case "join":
			if msg.UserID != 0 {
				m.joinRoom(wc, msg.UserID)
			}
		default:
			log.Printf("WS_UNKNOWN_EVENT: conn=%s event=%s", wc.connID, msg.Event)
		}
	}
}

// writeLoop drains the send channel onto the socket.
func (m *Manager) writeLoop(wc *wsContext) {
	defer wc.close()

	for {
		select {
		case data := <-wc.sendC:
			if err := wc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-wc.done:
			return
		}
	}
}

func (m *Manager) joinRoom(wc *wsContext, userID uint) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.rooms[userID]; !ok {
		m.rooms[userID] = make(map[string]*wsContext)
	}
	m.rooms[userID][wc.connID] = wc
	wc.joined[userID] = struct{}{}
}

func (m *Manager) leaveAll(wc *wsContext) {
	m.Lock()
	defer m.Unlock()

	for userID := range wc.joined {
		delete(m.rooms[userID], wc.connID)
		if len(m.rooms[userID]) == 0 {
			delete(m.rooms, userID)
		}
	}
}

// Broadcast implements domain.Publisher. Events fan out to every live
// connection in the user's room with no ordering guarantee across
// connections; a connection whose send buffer is full misses the event
// rather than blocking the caller.
func (m *Manager) Broadcast(userID uint, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WS_BROADCAST_MARSHAL_FAILED: user_id=%d event=%s error=%v", userID, event, err)
		return
	}
	out, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("WS_BROADCAST_MARSHAL_FAILED: user_id=%d event=%s error=%v", userID, event, err)
		return
	}

	m.RLock()
	defer m.RUnlock()

	for _, wc := range m.rooms[userID] {
		select {
		case wc.sendC <- out:
		default:
		}
	}
}

// RoomSize reports how many connections are currently in a user's room.
func (m *Manager) RoomSize(userID uint) int {
	m.RLock()
	defer m.RUnlock()
	return len(m.rooms[userID])
}

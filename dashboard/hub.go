package dashboard

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/yaoapp/kun/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 512
)

var newline = []byte{'\n'}

// Update the message pushed when a widget changed
type Update struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	State   string `json:"state"`
	Version uint64 `json:"version"`
	HTML    string `json:"html"`
}

// Hub push widget updates to the connected pages over websocket
type Hub struct {
	up      websocket.Upgrader
	mu      sync.Mutex
	clients map[*client]bool
	closed  bool
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub create a hub
func NewHub() *Hub {
	return &Hub{
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
			Error: func(_ http.ResponseWriter, _ *http.Request, status int, reason error) {
				log.Error("[Hub] upgrade [%d]%s", status, reason.Error())
			},
		},
		clients: map[*client]bool{},
	}
}

// Run close every client once ctx is done
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	log.Info("[Hub] closed")
}

// Serve upgrade the request and keep the client until it leaves
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
	return nil
}

// Online the number of connected clients
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish send the update to every client, slow clients are dropped
func (h *Hub) Publish(update Update) {
	message, err := jsoniter.Marshal(update)
	if err != nil {
		log.Error("[Hub] %s: %s", update.Name, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
	log.Trace("[Hub] %s v%d to %d clients", update.Name, update.Version, len(h.clients))
}

// PublishCell publish the current content of the cell
func (h *Hub) PublishCell(cell *Cell) {
	update := Update{Name: cell.Config.Name, ID: cell.Container.ID(), State: "idle", Version: cell.Container.Version(), HTML: cell.Container.HTML()}
	if task := cell.Task(); task != nil {
		update.State = task.State().String()
	}
	h.Publish(update)
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump the only writer of the connection. queued updates go out as one message, one per line
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			for i, n := 0, len(c.send); i < n; i++ {
				next, ok := <-c.send
				if !ok {
					break
				}
				w.Write(newline)
				w.Write(next)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drain the client until it leaves, pages only listen
func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("[Hub] %s", err.Error())
			}
			return
		}
	}
}

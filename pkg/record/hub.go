// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package record

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/arena/pkg/games"
	"laptudirm.com/x/arena/pkg/match"
)

const (
	// Time allowed to write a message to a spectator.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from a spectator.
	pongWait = 60 * time.Second

	// Pings are sent with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Spectators only ever send control messages.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a message sent to spectators.
type Message struct {
	Game  string `json:"game"`
	Event string `json:"event"`

	Header   *Header       `json:"header,omitempty"`
	Turn     *match.Turn   `json:"turn,omitempty"`
	Position string        `json:"position,omitempty"`
	Result   *match.Result `json:"result,omitempty"`
}

// GameInfo is the state of a game as known to the hub.
type GameInfo struct {
	ID       string        `json:"id"`
	Header   Header        `json:"header"`
	Turns    int           `json:"turns"`
	Position string        `json:"position"`
	Result   *match.Result `json:"result,omitempty"`
}

// Hub broadcasts the events of every game recorded through it to all
// connected spectators. All of its state is owned by the Run goroutine.
type Hub struct {
	clients map[*client]bool
	games   map[string]*GameInfo

	broadcast  chan *Message
	register   chan *client
	unregister chan *client
	snapshot   chan chan []GameInfo

	done chan struct{}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new hub. It does nothing until Run is called.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		games:      make(map[string]*GameInfo),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		snapshot:   make(chan chan []GameInfo),
		done:       make(chan struct{}),
	}
}

// Run runs the hub's event loop until ctx is done.
func (hub *Hub) Run(ctx context.Context) {
	defer close(hub.done)
	defer func() {
		for client := range hub.clients {
			hub.drop(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-hub.register:
			hub.clients[client] = true
			logrus.Debugf("spectator connected (total: %d)", len(hub.clients))

			for _, info := range hub.sortedGames() {
				header := info.Header
				hub.deliver(client, &Message{
					Game:     info.ID,
					Event:    EventStart,
					Header:   &header,
					Position: info.Position,
					Result:   info.Result,
				})
			}

		case client := <-hub.unregister:
			hub.drop(client)

		case message := <-hub.broadcast:
			hub.track(message)
			for client := range hub.clients {
				hub.deliver(client, message)
			}

		case reply := <-hub.snapshot:
			reply <- hub.sortedGames()
		}
	}
}

func (hub *Hub) track(message *Message) {
	info, found := hub.games[message.Game]
	if !found {
		info = &GameInfo{ID: message.Game}
		hub.games[message.Game] = info
	}

	switch message.Event {
	case EventStart:
		info.Header = *message.Header
	case EventTurn:
		info.Turns++
	case EventEnd:
		info.Result = message.Result
	}

	if message.Position != "" {
		info.Position = message.Position
	}
}

func (hub *Hub) sortedGames() []GameInfo {
	infos := make([]GameInfo, 0, len(hub.games))
	for _, info := range hub.games {
		infos = append(infos, *info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})

	return infos
}

func (hub *Hub) deliver(client *client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("spectate: marshaling message: %v", err)
		return
	}

	select {
	case client.send <- data:
	default:
		// the spectator is too slow to keep up
		hub.drop(client)
	}
}

func (hub *Hub) drop(client *client) {
	if _, found := hub.clients[client]; found {
		delete(hub.clients, client)
		close(client.send)
	}
}

// publish sends a message to the hub. Messages sent after the hub has
// stopped are dropped.
func (hub *Hub) publish(message *Message) {
	select {
	case hub.broadcast <- message:
	case <-hub.done:
	}
}

// Games returns the games known to the hub, sorted by their IDs.
func (hub *Hub) Games() []GameInfo {
	reply := make(chan []GameInfo, 1)
	select {
	case hub.snapshot <- reply:
		return <-reply
	case <-hub.done:
		return nil
	}
}

// Router returns the hub's HTTP routes: /ws for the live feed and /games
// for a listing of the games.
func (hub *Hub) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/ws", hub.ServeWS)
	router.Get("/games", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(hub.Games()); err != nil {
			logrus.Errorf("spectate: writing games: %v", err)
		}
	})

	return router
}

// Serve serves the hub's routes on addr until ctx is done.
func (hub *Hub) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: hub.Router(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logrus.Infof("\x1b[33mSpectate\x1b[0m at ws://%s/ws\n", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// ServeWS upgrades the request to a websocket and registers the spectator.
func (hub *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Debugf("spectate: upgrade failed: %v", err)
		return
	}

	client := &client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Debugf("spectate: %v", err)
			}
			return
		}
	}
}

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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Spectator is a recorder which feeds a single game into a Hub.
type Spectator struct {
	hub  *Hub
	id   string
	game games.Game
}

var _ match.Recorder = (*Spectator)(nil)

// NewSpectator announces a game to the hub and returns a recorder feeding
// it. The game's position is read after every turn, so the recorder must
// be used by the goroutine playing the game.
func (hub *Hub) NewSpectator(id string, header Header, game games.Game) *Spectator {
	hub.publish(&Message{
		Game:     id,
		Event:    EventStart,
		Header:   &header,
		Position: game.Position().String(),
	})

	return &Spectator{hub: hub, id: id, game: game}
}

func (spectator *Spectator) Append(turn match.Turn) error {
	spectator.hub.publish(&Message{
		Game:     spectator.id,
		Event:    EventTurn,
		Turn:     &turn,
		Position: spectator.game.Position().String(),
	})

	return nil
}

func (spectator *Spectator) Finalize(result *match.Result) error {
	spectator.hub.publish(&Message{
		Game:     spectator.id,
		Event:    EventEnd,
		Result:   result,
		Position: result.Final,
	})

	return nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/franckalain/wellnesscraft/internal/apperr"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

var errClientGone = errors.New("client disconnected")

// client is one WebSocket connection. Frames are written only by its
// writer goroutine.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan outbound
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

func (c *client) enqueue(msg outbound) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	}
}

func (c *client) close() {
	c.cancel()
}

// spawn runs fn alongside the connection's reader and writer. Used for
// requests that wait on the generation service.
func (c *client) spawn(fn func(ctx context.Context)) {
	c.group.Go(func() error {
		fn(c.ctx)
		return nil
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan outbound, sendBuffer),
		ctx:    gctx,
		cancel: cancel,
		group:  g,
	}
	logger := s.logger.With("client_id", c.id)

	s.clients.Store(c.id, c)
	defer s.clients.Delete(c.id)
	logger.Info("Client connected", "remote", r.RemoteAddr)

	g.Go(func() error { return s.writeLoop(c) })
	g.Go(func() error { return s.readLoop(c) })
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks the reader.
		return conn.Close()
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, errClientGone) && !errors.Is(err, context.Canceled) {
		logger.Warn("Client connection ended", "error", err)
		return
	}
	logger.Info("Client disconnected")
}

func (s *Server) readLoop(c *client) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && c.ctx.Err() == nil {
				return err
			}
			return errClientGone
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, apperr.E(apperr.KindValidation, "server.readLoop", errors.New("invalid message format")))
			continue
		}
		s.handleMessage(c, msg)
	}
}

func (s *Server) writeLoop(c *client) error {
	for {
		select {
		case <-c.ctx.Done():
			return nil
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return err
			}
		}
	}
}

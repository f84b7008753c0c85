package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"turtleblocks/internal/blocks"
	"turtleblocks/internal/interp"
	"turtleblocks/internal/logger"
	"turtleblocks/internal/session"
	"turtleblocks/internal/turtle"
)

// client is one websocket connection and the session it drives.
type client struct {
	srv    *Server
	conn   *websocket.Conn
	sess   *session.Session
	editor *blocks.Editor
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// send is never closed; writePump stops when ctx is done.
	send    chan []byte
	dropped int
}

func newClient(s *Server, conn *websocket.Conn) *client {
	editor := blocks.NewEditor(nil)
	speed := s.settings.Speed
	sess := session.New(session.Options{
		Source: editor,
		Turtle: turtle.Config{
			Width:  s.settings.Width,
			Height: s.settings.Height,
			Margin: s.settings.Margin,
			Steps:  s.settings.Steps,
			Speed:  &speed,
		},
		Log: s.log,
	})
	if s.settings.GridCell > 0 {
		sess.SetGridMode(true, s.settings.GridCell)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		srv:    s,
		conn:   conn,
		sess:   sess,
		editor: editor,
		log:    s.log.WithPrefix(sess.ID[:8]),
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, sendBuffer),
	}

	b := sess.Bounds()
	c.queue(response{Type: msgSession, ID: sess.ID, Width: b.Width, Height: b.Height, Margin: b.Margin})
	st := sess.Status()
	c.queue(response{Type: msgStatus, Status: &st})
	sess.Observe(turtle.ObserverFunc(c.onEvent))
	return c
}

// onEvent runs under the turtle's lock, so it never blocks. Frames that do
// not fit in the send buffer are dropped; the next event carries the full
// state again.
func (c *client) onEvent(e turtle.Event) {
	msg, err := json.Marshal(response{Type: msgEvent, Event: toEventPayload(e)})
	if err != nil {
		c.log.Error("encode event: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		c.dropped++
		if c.dropped%100 == 1 {
			c.log.Warn("send buffer full, dropped %d frames", c.dropped)
		}
	}
}

// queue blocks until the message is buffered or the connection is gone.
func (c *client) queue(r response) {
	msg, err := json.Marshal(r)
	if err != nil {
		c.log.Error("encode %s: %v", r.Type, err)
		return
	}
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	}
}

func (c *client) sendError(err error) {
	c.queue(response{Type: msgError, Error: err.Error()})
}

func (c *client) sendStatus() {
	st := c.sess.Status()
	c.queue(response{Type: msgStatus, Status: &st})
}

func (c *client) readPump() {
	defer func() {
		c.cancel()
		c.sess.Reset()
		c.srv.unregister(c)
		c.conn.Close()
	}()

	pongWait := c.srv.settings.PingPeriod * 10 / 9
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Warn("unexpected close: %v", err)
			}
			return
		}
		var req request
		if err := json.Unmarshal(message, &req); err != nil {
			c.sendError(errors.New("malformed message"))
			continue
		}
		c.handle(req)
	}
}

func (c *client) handle(req request) {
	c.log.Debug("← %s", req.Type)
	switch req.Type {
	case msgBlocks:
		seq, err := blocks.DecodeAll(req.Blocks)
		if err != nil {
			c.sendError(err)
			return
		}
		c.editor.Replace(seq)
		c.sendPreview()
	case msgPreview:
		c.sendPreview()
	case msgRun:
		// Claim the run before reading the next message so a reset that
		// follows always finds it.
		exec, err := c.sess.Start(c.ctx)
		if err != nil {
			c.runRejected(err)
			return
		}
		go c.finish(exec)
	case msgReset:
		c.sess.Reset()
		c.sendStatus()
	case msgSpeed:
		if req.Speed == nil {
			c.sendError(errors.New("speed: missing level"))
			return
		}
		c.sess.SetSpeed(*req.Speed)
	case msgGrid:
		if req.Grid == nil {
			c.sendError(errors.New("grid: missing settings"))
			return
		}
		c.sess.SetGridMode(req.Grid.Enabled, req.Grid.Cell)
	default:
		c.sendError(errors.New("unknown message type " + req.Type))
	}
}

func (c *client) sendPreview() {
	code, err := c.sess.Preview()
	if err != nil {
		c.queue(response{Type: msgPreview, Error: err.Error()})
		return
	}
	c.queue(response{Type: msgPreview, Code: code})
}

func (c *client) runRejected(err error) {
	if errors.Is(err, session.ErrBusy) {
		c.sendError(err)
		return
	}
	st := c.sess.Status()
	c.queue(response{Type: msgStatus, Status: &st, Error: err.Error()})
}

func (c *client) finish(exec func() interp.Outcome) {
	out := exec()
	st := c.sess.Status()
	c.queue(response{Type: msgStatus, Status: &st, Outcome: out.Status.String(), Executed: out.Executed})
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.srv.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed: %v", err)
				return
			}
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

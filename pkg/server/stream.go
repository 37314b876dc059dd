package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"vlogger/pkg/pipeline"
	"vlogger/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is one websocket frame: either a progress event or the final job.
type wsMessage struct {
	Type  string          `json:"type"`
	Event *pipeline.Event `json:"event,omitempty"`
	Job   *Job            `json:"job,omitempty"`
}

// GET /api/vlogs/:id/events
func (s *Server) handleGetEvents(c echo.Context) error {
	t, ok := s.jobs.Load(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("vlog not found"))
	}
	past, ch, cancel := t.subscribe()
	defer cancel()

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, e := range past {
		if err := w.Event(string(e.Stage), e); err != nil {
			return nil
		}
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				if err := w.Event("status", t.View()); err != nil {
					c.Logger().Errorf("SSE write error: %v", err)
				}
				return nil
			}
			if err := w.Event(string(e.Stage), e); err != nil {
				c.Logger().Errorf("SSE write error: %v", err)
				return nil
			}
		}
	}
}

// GET /api/vlogs/:id/ws
func (s *Server) handleGetWS(c echo.Context) error {
	t, ok := s.jobs.Load(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("vlog not found"))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	past, ch, cancel := t.subscribe()
	defer cancel()

	// the client never sends anything useful; reading detects a close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, e := range past {
		if err := conn.WriteJSON(wsMessage{Type: "event", Event: &e}); err != nil {
			return nil
		}
	}
	for {
		select {
		case <-gone:
			return nil
		case e, ok := <-ch:
			if !ok {
				j := t.View()
				if err := conn.WriteJSON(wsMessage{Type: "status", Job: &j}); err != nil {
					return nil
				}
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := conn.WriteJSON(wsMessage{Type: "event", Event: &e}); err != nil {
				c.Logger().Errorf("websocket write error: %v", err)
				return nil
			}
		}
	}
}

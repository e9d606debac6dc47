package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// local app; allow all
		return true
	},
}

func (s *Server) handleWSEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}
	client := s.ws.Add(conn)

	// Keep reading until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.ws.Remove(client)
			return
		}
	}
}

// PumpEvents forwards every bus event published since New to the websocket
// clients until ctx is done. It must be called at most once.
func (s *Server) PumpEvents(ctx context.Context) error {
	sub := s.sub
	defer sub.Unsubscribe()
	defer s.ws.CloseAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub.C():
			if !ok {
				return nil
			}
			s.ws.Broadcast(WSMessage{Type: string(e.Kind), Data: e})
		}
	}
}

package transport

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// WebSocketHandler upgrades the request and runs a session over it. Both
// directions carry raw terminal bytes in binary messages. Requests over
// maxSessions open sessions are refused with 503 before the upgrade.
func WebSocketHandler(serve ServeFunc, maxSessions int, log zerolog.Logger) http.HandlerFunc {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	sem := make(chan struct{}, maxSessions)

	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			log.Warn().Str("remote", r.RemoteAddr).Msg("connection limit reached")
			http.Error(w, "too many sessions", http.StatusServiceUnavailable)
			return
		}

		wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket accept failed")
			return
		}
		defer wsConn.CloseNow()

		ctx := r.Context()
		netConn := websocket.NetConn(ctx, wsConn, websocket.MessageBinary)

		c := NewConn("websocket", r.RemoteAddr, netConn, netConn)
		defer c.Close()

		err = serve(ctx, c)
		switch {
		case err == nil, errors.Is(err, ctx.Err()):
			wsConn.Close(websocket.StatusNormalClosure, "bye")
		default:
			log.Warn().Err(err).Str("session", c.ID).Msg("session ended with error")
			wsConn.Close(websocket.StatusInternalError, "session error")
		}
	}
}

package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ScanSource is the live scan feed a socket streams from.
type ScanSource interface {
	Subscribe(ctx context.Context) <-chan nfc.Scan
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NFCModule mounts GET /nfc/subscribe, a websocket carrying every scan as
// JSON. Browsers pass the token as ?token= since they cannot set headers on
// a websocket handshake.
func NFCModule(source ScanSource) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.RAW(http.MethodGet, "/nfc/subscribe", subscribeScans(source))
	})
}

func subscribeScans(source ScanSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("nfc websocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// reader: only pongs and close frames are expected
		go func() {
			defer cancel()
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		scans := source.Subscribe(ctx)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		log.Debug().Str("remote", c.ClientIP()).Msg("nfc subscriber connected")
		defer log.Debug().Str("remote", c.ClientIP()).Msg("nfc subscriber disconnected")

		for {
			select {
			case <-ctx.Done():
				return
			case scan, ok := <-scans:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
					return
				}
				if err := conn.WriteJSON(scan); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api/device/packets"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
)

// ScanModule mounts POST /nfc/scan for card readers that speak HTTP instead
// of MQTT.
func ScanModule(emitter nfc.Emitter) api.Module {
	ctl := &ScanController{emitter: emitter, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/nfc/scan", ctl.postScan)
	})
}

type ScanController struct {
	emitter nfc.Emitter
	now     func() time.Time
}

// POST /api/nfc/scan
func (s *ScanController) postScan(ctx *gin.Context) (any, *api.APIError) {
	var request packets.ScanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	scan := nfc.Scan{CardID: request.CardID, RoomID: request.RoomID, ScannedAt: s.now()}
	if request.ScannedAt != nil {
		scan.ScannedAt = *request.ScannedAt
	}

	if err := s.emitter.Emit(ctx.Request.Context(), scan); err != nil {
		log.Error().Err(err).Str("card_id", scan.CardID).Msg("failed to emit scan")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not deliver scan"}
	}
	return packets.ScanResponse{Success: true}, nil
}

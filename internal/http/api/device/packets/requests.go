package packets

import "time"

// REQUESTS FOR /api/nfc/scan
type ScanRequest struct {
	CardID    string     `json:"card_id"    binding:"required,max=64"`
	RoomID    string     `json:"room_id"    binding:"omitempty,uuid"`
	ScannedAt *time.Time `json:"scanned_at"`
}

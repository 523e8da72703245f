package packets

type ScanResponse struct {
	Success bool `json:"success"`
}

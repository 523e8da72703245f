package packets

type SuccessResponse struct {
	Success bool `json:"success"`
}

type DeletedSeriesResponse struct {
	Code    string `json:"code"`
	Deleted int    `json:"deleted"`
}

// EnrollmentResponse reports how many sections of a series changed.
type EnrollmentResponse struct {
	Code      string `json:"code"`
	StudentID string `json:"student_id"`
	Sections  int    `json:"sections"`
}

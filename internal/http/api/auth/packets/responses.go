package packets

type TokenResponse struct {
	Token string `json:"token"`
}

// ProfileResponse mirrors model.User but flattens times to RFC3339.
type ProfileResponse struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	StudentID *string `json:"student_id"`
	Image     *string `json:"image"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

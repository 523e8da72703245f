package packets

// LoginRequest accepts an email address or a student code as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password"   binding:"required"`
}

type UpdateCurrentProfileRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}

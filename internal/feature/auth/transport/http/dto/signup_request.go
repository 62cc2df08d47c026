package dto

// SignupReq represents the signup form or JSON body.
// It uses Gin's binding tags for validation (required, email format, password length).
type SignupReq struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=8"`
}

package dto

// ContactRequest body of POST /contact
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

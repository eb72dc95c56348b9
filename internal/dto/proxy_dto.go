package dto

// Wire contract of the public proxy endpoints.

type ProxyMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type ChatProxyResponse struct {
	Reply string `json:"reply"`
}

type SendConfirmationRequest struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
}

type SendConfirmationResponse struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
}

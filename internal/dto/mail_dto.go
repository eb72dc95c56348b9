package dto

// PublishWelcomeEmailMessage is the payload of the WELCOME_EMAIL topic.
type PublishWelcomeEmailMessage struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
}

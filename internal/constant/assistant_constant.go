package constant

const (
	ChatMessageRoleUser   = "user"
	ChatMessageRoleBot    = "bot"
	ChatMessageRoleSystem = "system"

	// External role names used by the completion API.
	CompletionRoleUser      = "user"
	CompletionRoleAssistant = "assistant"
	CompletionRoleSystem    = "system"

	// Placeholder title until the first user message names the session.
	NewSessionTitle = "New Injury Chat"

	SystemPrompt = "You are AthletiCare AI, a sports medicine assistant. Provide safe, non-diagnostic guidance. Always encourage seeing a licensed athletic trainer or medical professional for serious symptoms."

	// Stored in place of a reply when the completion call fails.
	FallbackReply = "Sorry — I'm having trouble responding right now. Please try again."

	CompletionTemperature = 0.4
	CompletionMaxTokens   = 300
)

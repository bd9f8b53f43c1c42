package api

// MessageResponse is the body of operations that return no resource.
type MessageResponse struct {
	Message string `json:"message" doc:"What happened"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}

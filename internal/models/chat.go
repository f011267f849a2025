package models

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type ChatPart struct {
	Text string `json:"text"`
}

// ChatContent is one turn of a coach conversation.
type ChatContent struct {
	Role  string     `json:"role"`
	Parts []ChatPart `json:"parts"`
}

// NewChatContent builds a single-part turn.
func NewChatContent(role, text string) ChatContent {
	return ChatContent{Role: role, Parts: []ChatPart{{Text: text}}}
}

// Text joins all parts of the turn.
func (c ChatContent) Text() string {
	var out string
	for _, p := range c.Parts {
		out += p.Text
	}
	return out
}

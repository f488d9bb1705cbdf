package domain

// SendMessageCommand is the intent of an authenticated user to message another one.
// Image carries the raw upload (data URI or base64) until the pipeline resolves it.
type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Text       string
	Image      string
}

func (c SendMessageCommand) Validate() error {
	return validateContent(c.SenderID, c.ReceiverID, c.Text, c.Image)
}

type GetConversationCommand struct {
	UserID        string
	CounterpartID string
}

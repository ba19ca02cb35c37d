package httpserver

// UserRef identifies a chat user inside a webhook payload.
type UserRef struct {
	ID string `json:"id"`
}

// MessagePayload is the message portion of the webhook payload.
type MessagePayload struct {
	Text string   `json:"text"`
	User *UserRef `json:"user"`
}

// NewMessageRequest is the inbound webhook body for message.new events.
type NewMessageRequest struct {
	CID     string          `json:"cid"`
	Type    string          `json:"type"`
	User    *UserRef        `json:"user"`
	Message *MessagePayload `json:"message"`
}

// AuthorID prefers the message-level author, falling back to the
// event-level user.
func (r *NewMessageRequest) AuthorID() string {
	if r.Message != nil && r.Message.User != nil && r.Message.User.ID != "" {
		return r.Message.User.ID
	}
	if r.User != nil {
		return r.User.ID
	}
	return ""
}

// Text returns the message text, tolerating absent payloads.
func (r *NewMessageRequest) Text() string {
	if r.Message == nil {
		return ""
	}
	return r.Message.Text
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public account representation.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse carries the account and its access token.
type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// ChatTokenResponse carries a minted chat-backend user token.
type ChatTokenResponse struct {
	Token string `json:"token"`
}

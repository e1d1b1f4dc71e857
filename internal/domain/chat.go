package domain

// Sender identifies who wrote a client-side chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry of the transcript the client sends with a chat request.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Role is the speaker of a turn as the language model sees it.
type Role string

const (
	RoleUserTurn  Role = "user"
	RoleModelTurn Role = "model"
)

// NormalizedTurn is a transcript entry reshaped for the model: sequences of
// turns start with a user turn and strictly alternate roles.
type NormalizedTurn struct {
	Role Role
	Text string
}

package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"player_name,omitempty"`
	Bot             bool   `json:"bot,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	PlayerID        string `json:"player_id"`
	CatalogDigest   string `json:"catalog_digest"`
}

// MESSAGE (client -> server): one chat line from the player.
type MessageMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ChannelID       string `json:"channel_id"`
	Content         string `json:"content"`
	// Mentions carries the ids of any players referenced in the line,
	// in order of appearance. The frontend resolves display names.
	Mentions []string `json:"mentions,omitempty"`
}

// INTERACTION (client -> server): a button press on a prior reply.
type InteractionMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ChannelID       string `json:"channel_id,omitempty"`
	CustomID        string `json:"custom_id"`
	ReplyID         string `json:"reply_id,omitempty"`
}

// REPLY (server -> client)
type ReplyMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ReplyID         string      `json:"reply_id"`
	ChannelID       string      `json:"channel_id,omitempty"`
	Content         string      `json:"content"`
	Components      []Component `json:"components,omitempty"`
	// Update asks the frontend to edit the reply identified by ReplyID
	// in place rather than append a new message.
	Update    bool   `json:"update,omitempty"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
	Code      string `json:"code,omitempty"`
}

// Component describes a button the frontend renders under a reply.
type Component struct {
	CustomID string `json:"custom_id"`
	Label    string `json:"label"`
	Style    string `json:"style,omitempty"` // "primary","danger","success","secondary"
	Disabled bool   `json:"disabled,omitempty"`
}

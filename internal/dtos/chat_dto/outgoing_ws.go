package chat_dto

// ErrorEvent is sent to the originating connection only.
type ErrorEvent struct {
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type RoomJoinedEvent struct {
	Room string `json:"room"`
}

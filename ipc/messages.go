package ipc

import "github.com/nstehr/pitch/pitch-core/model"

// Message types exchanged with the robot framework.
const (
	TypeHello         = "hello"
	TypeAck           = "ack"
	TypeWorldSnapshot = "world_snapshot"
	TypeMotionCommand = "motion_command"
	TypeError         = "error"
)

type HelloMessage struct {
	PlayerNumber model.PlayerNumber `json:"playerNumber"`
	TeamNumber   uint8              `json:"teamNumber"`
	// Field overrides the configured field dimensions when present.
	Field *model.FieldDimensions `json:"field,omitempty"`
}

type AckMessage struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId"`
}

type ErrorMessage struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}

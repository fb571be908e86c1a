package ipc

import "github.com/nstehr/pitch/pitch-core/model"

// MotionCommandMessage answers a world snapshot with the cycle's decision.
// Action is empty when the command was injected.
type MotionCommandMessage struct {
	Action    string              `json:"action,omitempty"`
	Command   model.MotionCommand `json:"command"`
	Injected  bool                `json:"injected,omitempty"`
	Injection string              `json:"injection,omitempty"`
	// PathObstacles are the obstacles the walk path was planned around.
	PathObstacles []model.Obstacle `json:"pathObstacles,omitempty"`
	// Reported is set on the cycle a referee report was queued.
	Reported bool `json:"reported,omitempty"`
}

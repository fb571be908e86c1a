package model

import (
	"fmt"
	"time"
)

// PlayerNumber is the jersey number, 1 through 7.
type PlayerNumber uint8

const MaxPlayerNumber PlayerNumber = 7

func (n PlayerNumber) Validate() error {
	if n < 1 || n > MaxPlayerNumber {
		return fmt.Errorf("player number %d out of range 1-%d", n, MaxPlayerNumber)
	}
	return nil
}

// TeamState is one team's entry in a game controller packet.
type TeamState struct {
	TeamNumber uint8 `json:"teamNumber"`
	Score      uint8 `json:"score"`
}

// GameControllerMessage is a decoded game controller broadcast. Sender is
// the host the packet came from, empty when unknown.
type GameControllerMessage struct {
	GameState    GameState `json:"gameState"`
	GamePhase    GamePhase `json:"gamePhase"`
	KickingTeam  Team      `json:"kickingTeam"`
	SubState     SubState  `json:"subState,omitempty"`
	OwnTeam      TeamState `json:"ownTeam"`
	OpponentTeam TeamState `json:"opponentTeam"`
	Sender       string    `json:"sender,omitempty"`
}

// SplMessage is a teammate broadcast.
type SplMessage struct {
	PlayerNumber PlayerNumber `json:"playerNumber"`
	Fallen       bool         `json:"fallen"`
	RobotToField Pose         `json:"robotToField"`
	Ball         *Point       `json:"ball,omitempty"`
}

// IncomingMessage holds exactly one of its fields.
type IncomingMessage struct {
	GameController *GameControllerMessage `json:"gameController,omitempty"`
	Spl            *SplMessage            `json:"spl,omitempty"`
}

// TimedMessages groups the messages received at one instant.
type TimedMessages struct {
	ReceivedAt time.Time         `json:"receivedAt"`
	Messages   []IncomingMessage `json:"messages"`
}

// BallPosition is a robot-relative ball sighting with its age.
type BallPosition struct {
	RelativePosition Point         `json:"relativePosition"`
	Age              time.Duration `json:"age"`
}

// GameControllerReturnMessage is the status packet a robot sends back to
// the game controller. HandSignal travels in the slot otherwise used for
// the fallen flag. A zero TeamNumber leaves the team to the radio config.
type GameControllerReturnMessage struct {
	PlayerNumber        PlayerNumber  `json:"playerNumber"`
	TeamNumber          uint8         `json:"teamNumber,omitempty"`
	HandSignal          uint8         `json:"handSignal"`
	RobotToField        Pose          `json:"robotToField"`
	Ball                *BallPosition `json:"ball,omitempty"`
	ElapsedSinceWhistle time.Duration `json:"elapsedSinceWhistle"`
}

// OutgoingMessage is anything the decision core asks the radio to transmit.
type OutgoingMessage struct {
	GameControllerReturn *GameControllerReturnMessage `json:"gameControllerReturn,omitempty"`
}

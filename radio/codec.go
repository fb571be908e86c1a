package radio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

// Game controller return packet layout, little-endian:
//
//	header  [4]byte  "RGrt"
//	version uint8
//	player  uint8    1-7
//	team    uint8
//	signal  uint8    hand signal, sent in the slot the league uses for "fallen"
//	pose    [3]float32  x mm, y mm, theta rad
//	ballAge float32  seconds, -1 when the ball is unknown
//	ball    [2]float32  x mm, y mm relative to the robot
const (
	ReturnHeader  = "RGrt"
	ReturnVersion = 4
	ReturnSize    = 4 + 4 + 3*4 + 4 + 2*4
)

var ErrMalformed = errors.New("malformed game controller return packet")

// EncodeReturn serializes msg. teamNumber is used when msg carries no team.
func EncodeReturn(msg model.GameControllerReturnMessage, teamNumber uint8) ([]byte, error) {
	if err := msg.PlayerNumber.Validate(); err != nil {
		return nil, fmt.Errorf("encode return message: %w", err)
	}
	if msg.TeamNumber != 0 {
		teamNumber = msg.TeamNumber
	}
	buf := make([]byte, 0, ReturnSize)
	buf = append(buf, ReturnHeader...)
	buf = append(buf, ReturnVersion, uint8(msg.PlayerNumber), teamNumber, msg.HandSignal)

	pose := msg.RobotToField
	buf = appendFloat(buf, pose.X*1000)
	buf = appendFloat(buf, pose.Y*1000)
	buf = appendFloat(buf, pose.Theta)

	if msg.Ball == nil {
		buf = appendFloat(buf, -1)
		buf = appendFloat(buf, 0)
		buf = appendFloat(buf, 0)
		return buf, nil
	}
	buf = appendFloat(buf, msg.Ball.Age.Seconds())
	buf = appendFloat(buf, msg.Ball.RelativePosition.X*1000)
	buf = appendFloat(buf, msg.Ball.RelativePosition.Y*1000)
	return buf, nil
}

// DecodeReturn parses a packet produced by EncodeReturn. ElapsedSinceWhistle
// is not part of the packet and stays zero.
func DecodeReturn(data []byte) (model.GameControllerReturnMessage, uint8, error) {
	var msg model.GameControllerReturnMessage
	if len(data) != ReturnSize {
		return msg, 0, fmt.Errorf("%w: length %d, want %d", ErrMalformed, len(data), ReturnSize)
	}
	if !bytes.Equal(data[:4], []byte(ReturnHeader)) {
		return msg, 0, fmt.Errorf("%w: header %q", ErrMalformed, data[:4])
	}
	if data[4] != ReturnVersion {
		return msg, 0, fmt.Errorf("%w: version %d", ErrMalformed, data[4])
	}
	msg.PlayerNumber = model.PlayerNumber(data[5])
	if err := msg.PlayerNumber.Validate(); err != nil {
		return msg, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	team := data[6]
	msg.TeamNumber = team
	msg.HandSignal = data[7]

	f := func(i int) float64 {
		off := 8 + 4*i
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4])))
	}
	msg.RobotToField = model.Pose{X: f(0) / 1000, Y: f(1) / 1000, Theta: f(2)}
	if age := f(3); age >= 0 {
		msg.Ball = &model.BallPosition{
			RelativePosition: model.Point{X: f(4) / 1000, Y: f(5) / 1000},
			Age:              time.Duration(age * float64(time.Second)),
		}
	}
	return msg, team, nil
}

func appendFloat(buf []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
}

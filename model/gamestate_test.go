package model

import (
	"testing"
	"time"
)

func TestLatestGameControllerMessage(t *testing.T) {
	t0 := time.Unix(100, 0)
	snap := Snapshot{
		Messages: []TimedMessages{
			{ReceivedAt: t0, Messages: []IncomingMessage{
				{GameController: &GameControllerMessage{OwnTeam: TeamState{Score: 1}}},
				{Spl: &SplMessage{PlayerNumber: 2}},
			}},
			{ReceivedAt: t0.Add(time.Millisecond), Messages: []IncomingMessage{
				{GameController: &GameControllerMessage{OwnTeam: TeamState{Score: 2}}},
				{Spl: &SplMessage{PlayerNumber: 3}},
			}},
		},
	}
	msg, ok := snap.LatestGameControllerMessage()
	if !ok {
		t.Fatal("expected a game controller message")
	}
	if msg.OwnTeam.Score != 2 {
		t.Errorf("own score = %d, want 2 (newest message)", msg.OwnTeam.Score)
	}
}

func TestLatestGameControllerMessageNone(t *testing.T) {
	snap := Snapshot{Messages: []TimedMessages{
		{Messages: []IncomingMessage{{Spl: &SplMessage{PlayerNumber: 1}}}},
	}}
	if _, ok := snap.LatestGameControllerMessage(); ok {
		t.Error("expected no game controller message")
	}
}

func TestPrimaryStateIsActive(t *testing.T) {
	for _, p := range PrimaryStates() {
		want := p == PrimaryReady || p == PrimaryPlaying
		if got := p.IsActive(); got != want {
			t.Errorf("%s.IsActive() = %v, want %v", p, got, want)
		}
	}
}

func TestPlayerNumberValidate(t *testing.T) {
	for n := PlayerNumber(0); n <= 8; n++ {
		err := n.Validate()
		if valid := n >= 1 && n <= 7; valid != (err == nil) {
			t.Errorf("PlayerNumber(%d).Validate() = %v", n, err)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range Roles() {
		if !r.Valid() {
			t.Errorf("%s.Valid() = false, want true", r)
		}
	}
	for _, r := range []Role{"", "goalie"} {
		if r.Valid() {
			t.Errorf("%q.Valid() = true, want false", r)
		}
	}
}

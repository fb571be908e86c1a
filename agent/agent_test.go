package agent

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nstehr/pitch/pitch-core/config"
	"github.com/nstehr/pitch/pitch-core/ipc"
	"github.com/nstehr/pitch/pitch-core/model"
	"github.com/nstehr/pitch/pitch-core/radio"
	"github.com/nstehr/pitch/pitch-core/referee"
	"github.com/nstehr/pitch/pitch-core/telemetry"
)

type captureSink struct {
	sent     []model.OutgoingMessage
	observed int
}

func (s *captureSink) WriteToNetwork(msg model.OutgoingMessage) error {
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSink) ObserveMessages(history []model.TimedMessages) {
	s.observed += len(history)
}

type fixedSignal uint8

func (c fixedSignal) Classify(*model.Snapshot) uint8 { return uint8(c) }

func newTestAgent(t *testing.T, cfg config.Config, opts Options) *Agent {
	t.Helper()
	opts.Reporter = append(opts.Reporter, referee.WithClassifier(fixedSignal(4)))
	a, err := New(nil, cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func mustStep(t *testing.T, a *Agent, snap *model.Snapshot) ipc.MotionCommandMessage {
	t.Helper()
	msg, err := a.Step(context.Background(), snap)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return msg
}

func TestStepReportsOncePerWhistle(t *testing.T) {
	sink := &captureSink{}
	a := newTestAgent(t, config.Default(), Options{Sink: sink})

	first := baseSnapshot(0)
	first.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}
	msg := mustStep(t, a, first)
	if msg.Action == "" || msg.Injected {
		t.Errorf("msg = %+v, want a scheduled action", msg)
	}
	if !msg.Reported {
		t.Error("Reported = false on the whistle cycle")
	}
	for i := 1; i <= 10; i++ {
		if msg := mustStep(t, a, baseSnapshot(time.Duration(i)*100*time.Millisecond)); msg.Reported {
			t.Errorf("cycle %d reported again", i)
		}
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sent %d reports, want 1", len(sink.sent))
	}
	if got := sink.sent[0].GameControllerReturn.HandSignal; got != 4 {
		t.Errorf("HandSignal = %d, want 4", got)
	}
	if sink.observed != 0 {
		t.Errorf("observed %d message groups, want 0", sink.observed)
	}
}

func TestStepPassesMessagesToObserver(t *testing.T) {
	sink := &captureSink{}
	a := newTestAgent(t, config.Default(), Options{Sink: sink})
	mustStep(t, a, withScore(baseSnapshot(0), 0, 0))
	if sink.observed != 1 {
		t.Errorf("observed %d message groups, want 1", sink.observed)
	}
}

func TestStepInjectedCommand(t *testing.T) {
	cfg := config.Default()
	sit := model.SitDownCommand()
	cfg.Behavior.InjectedMotionCommand = &sit
	a := newTestAgent(t, cfg, Options{})

	msg := mustStep(t, a, baseSnapshot(0))
	if !msg.Injected || msg.Action != "" || msg.Command.Kind != model.MotionSitDown {
		t.Errorf("msg = %+v, want injected sit down", msg)
	}
}

func TestApply(t *testing.T) {
	a := newTestAgent(t, config.Default(), Options{})
	if msg := mustStep(t, a, baseSnapshot(0)); msg.Injected {
		t.Fatalf("msg = %+v before apply, want scheduled", msg)
	}

	cfg := config.Default()
	sit := model.SitDownCommand()
	cfg.Behavior.InjectedMotionCommand = &sit
	if err := a.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if msg := mustStep(t, a, baseSnapshot(10*time.Millisecond)); !msg.Injected {
		t.Errorf("msg = %+v after apply, want injected", msg)
	}

	bad := config.Default()
	bad.Referee.ReportingWindow = 0
	if err := a.Apply(bad); !errors.Is(err, referee.ErrInvalidConfig) {
		t.Errorf("Apply = %v, want referee.ErrInvalidConfig", err)
	}
}

func TestStepRecordsRun(t *testing.T) {
	rec, err := telemetry.OpenRecorder(filepath.Join(t.TempDir(), "pitch.db"))
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	defer rec.Close()

	a := newTestAgent(t, config.Default(), Options{Sink: &captureSink{}, Recorder: rec, Source: "test"})
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a.RunID() == "" {
		t.Fatal("RunID is empty after Start")
	}

	whistle := baseSnapshot(0)
	whistle.Whistle.StartedThisCycle = true
	mustStep(t, a, whistle)
	mustStep(t, a, baseSnapshot(10*time.Millisecond))

	counts, err := rec.ActionCounts(a.RunID())
	if err != nil {
		t.Fatalf("ActionCounts: %v", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 2 {
		t.Errorf("recorded %d decisions, want 2 (%v)", total, counts)
	}
	sent, err := rec.SentReports(a.RunID())
	if err != nil {
		t.Fatalf("SentReports: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("SentReports = %v, want one episode", sent)
	}
}

func TestHandleHelloRejectsPlayerNumber(t *testing.T) {
	a := newTestAgent(t, config.Default(), Options{})
	env, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{PlayerNumber: 9})
	if _, err := a.HandleHello(env); err == nil {
		t.Error("HandleHello accepted player 9")
	}
}

func TestSessionOverConnection(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sink := &captureSink{}
	a := newTestAgent(t, config.Default(), Options{Sink: sink})
	conn := ipc.NewConnection(server, nil)
	a.Conn = conn
	conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	conn.RegisterHandler(ipc.TypeWorldSnapshot, a.HandleWorldSnapshot)
	go conn.ReadLoop()

	roundTrip := func(msgType string, data any) ipc.Envelope {
		t.Helper()
		env, err := ipc.NewEnvelope(msgType, data)
		if err != nil {
			t.Fatalf("NewEnvelope: %v", err)
		}
		if err := ipc.WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", msgType, err)
		}
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		reply, err := ipc.ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read reply to %s: %v", msgType, err)
		}
		return reply
	}

	reply := roundTrip(ipc.TypeHello, ipc.HelloMessage{PlayerNumber: 5, TeamNumber: 24})
	var ack ipc.AckMessage
	if err := reply.Decode(&ack); err != nil || reply.Type != ipc.TypeAck {
		t.Fatalf("hello reply = %s %v", reply.Type, err)
	}
	if ack.SessionID != a.SessionID || ack.Status != "ok" {
		t.Errorf("ack = %+v, want session %s", ack, a.SessionID)
	}
	if a.Player != 5 || a.Team != 24 {
		t.Errorf("player %d team %d, want 5 and 24", a.Player, a.Team)
	}

	snap := baseSnapshot(0)
	snap.Whistle.StartedThisCycle = true
	reply = roundTrip(ipc.TypeWorldSnapshot, snap)
	var msg ipc.MotionCommandMessage
	if err := reply.Decode(&msg); err != nil || reply.Type != ipc.TypeMotionCommand {
		t.Fatalf("snapshot reply = %s %v", reply.Type, err)
	}
	if msg.Action == "" || !msg.Reported {
		t.Errorf("motion command = %+v, want an action and a report", msg)
	}
	if len(sink.sent) != 1 || sink.sent[0].GameControllerReturn.PlayerNumber != 5 {
		t.Errorf("sent = %+v, want one report from player 5", sink.sent)
	}
}

func helloEnvelope(t *testing.T, hello ipc.HelloMessage) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(ipc.TypeHello, hello)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

func TestHelloTeamReachesGameController(t *testing.T) {
	gc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer gc.Close()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cfg := config.Default()
	cfg.Radio.GameControllerAddr = "127.0.0.1"
	cfg.Radio.GameControllerPort = gc.LocalAddr().(*net.UDPAddr).Port
	sender := radio.NewSender(cfg.Radio, conn)
	defer sender.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sender.Run(ctx)

	a := newTestAgent(t, cfg, Options{Sink: sender})
	if _, err := a.HandleHello(helloEnvelope(t, ipc.HelloMessage{PlayerNumber: 3, TeamNumber: 24})); err != nil {
		t.Fatalf("HandleHello: %v", err)
	}
	whistle := baseSnapshot(0)
	whistle.Whistle.StartedThisCycle = true
	if msg := mustStep(t, a, whistle); !msg.Reported {
		t.Fatalf("msg = %+v, want a report", msg)
	}

	buf := make([]byte, 64)
	gc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := gc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	report, team, err := radio.DecodeReturn(buf[:n])
	if err != nil {
		t.Fatalf("DecodeReturn: %v", err)
	}
	if team != 24 || report.PlayerNumber != 3 || report.HandSignal != 4 {
		t.Errorf("packet team/player/signal = %d/%d/%d, want 24/3/4", team, report.PlayerNumber, report.HandSignal)
	}
}

func TestHelloFieldKeepsAppliedConfig(t *testing.T) {
	a := newTestAgent(t, config.Default(), Options{})

	cfg := config.Default()
	sit := model.SitDownCommand()
	cfg.Behavior.InjectedMotionCommand = &sit
	if err := a.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	field := model.StandardField()
	field.Length = 14
	if _, err := a.HandleHello(helloEnvelope(t, ipc.HelloMessage{PlayerNumber: 2, Field: &field})); err != nil {
		t.Fatalf("HandleHello: %v", err)
	}
	if msg := mustStep(t, a, baseSnapshot(0)); !msg.Injected {
		t.Errorf("msg = %+v after hello, want the applied injection", msg)
	}

	bad := model.FieldDimensions{}
	if _, err := a.HandleHello(helloEnvelope(t, ipc.HelloMessage{PlayerNumber: 2, Field: &bad})); err == nil {
		t.Error("HandleHello accepted an empty field")
	}
}

func TestHelloAndApplyConcurrently(t *testing.T) {
	a := newTestAgent(t, config.Default(), Options{})
	field := model.StandardField()
	env := helloEnvelope(t, ipc.HelloMessage{PlayerNumber: 4, TeamNumber: 7, Field: &field})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 50 {
			if err := a.Apply(config.Default()); err != nil {
				t.Errorf("Apply: %v", err)
				return
			}
		}
	}()
	for i := range 50 {
		if _, err := a.HandleHello(env); err != nil {
			t.Fatalf("HandleHello: %v", err)
		}
		mustStep(t, a, baseSnapshot(time.Duration(i)*10*time.Millisecond))
	}
	wg.Wait()
}

func TestStepPublishesPathObstacles(t *testing.T) {
	a := newTestAgent(t, config.Default(), Options{})
	keeper := func(offset time.Duration) *model.Snapshot {
		snap := baseSnapshot(offset)
		snap.World.Robot.Role = model.RoleKeeper
		snap.World.Robot.RobotToField = &model.Pose{}
		snap.World.Ball = &model.BallState{InField: model.Point{}}
		snap.World.Obstacles = []model.Obstacle{{Position: model.Point{X: -2}, Radius: 0.3}}
		return snap
	}
	mustStep(t, a, keeper(0))

	msg := mustStep(t, a, keeper(10*time.Second))
	if msg.Action != "defend_goal" {
		t.Fatalf("action = %q, want defend_goal", msg.Action)
	}
	if len(msg.PathObstacles) != 1 || msg.PathObstacles[0].Position.X != -2 {
		t.Errorf("PathObstacles = %+v, want the obstacle at x=-2", msg.PathObstacles)
	}
}

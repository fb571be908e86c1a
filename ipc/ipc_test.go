package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"
)

func TestEnvelopeFrame(t *testing.T) {
	env, err := NewEnvelope(TypeHello, HelloMessage{PlayerNumber: 3, TeamNumber: 24})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()); int(got) != buf.Len()-4 {
		t.Errorf("length prefix = %d, want %d", got, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	var hello HelloMessage
	if err := got.Decode(&hello); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Type != TypeHello || hello.PlayerNumber != 3 || hello.TeamNumber != 24 {
		t.Errorf("decoded %s %+v", got.Type, hello)
	}
}

func TestReadEnvelopeRejectsLength(t *testing.T) {
	for _, length := range []uint32{0, MaxMessageSize + 1} {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, length)
		if _, err := ReadEnvelope(&buf); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("length %d: err = %v, want ErrInvalidLength", length, err)
		}
	}
}

func TestReadEnvelopeTruncated(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(10))
	buf.WriteString("{}")
	if _, err := ReadEnvelope(&buf); err == nil {
		t.Error("ReadEnvelope accepted a truncated frame")
	}
}

func TestReadLoop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	fatal := fmt.Errorf("%w: scheduler stopped", ErrFatal)
	conn := NewConnection(server, map[string]Handler{
		"echo": func(env Envelope) (*Envelope, error) {
			return &Envelope{Type: "echo_reply", Data: env.Data}, nil
		},
		"soft": func(Envelope) (*Envelope, error) {
			return nil, errors.New("bad input")
		},
		"boom": func(Envelope) (*Envelope, error) {
			return nil, fatal
		},
	})
	done := make(chan error, 1)
	go func() { done <- conn.ReadLoop() }()

	send := func(msgType string) {
		t.Helper()
		env, _ := NewEnvelope(msgType, map[string]int{"n": 1})
		if err := WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", msgType, err)
		}
	}
	read := func() Envelope {
		t.Helper()
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		env, err := ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return env
	}

	send("echo")
	if env := read(); env.Type != "echo_reply" {
		t.Errorf("reply type = %q, want echo_reply", env.Type)
	}

	send("unknown")
	send("soft")
	env := read()
	var msg ErrorMessage
	env.Decode(&msg)
	if env.Type != TypeError || msg.Fatal {
		t.Errorf("soft error reply = %s %+v", env.Type, msg)
	}

	send("boom")
	env = read()
	env.Decode(&msg)
	if !msg.Fatal {
		t.Errorf("fatal error reply = %+v, want fatal", msg)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrFatal) {
			t.Errorf("ReadLoop = %v, want ErrFatal", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not exit after a fatal error")
	}
}

func TestReadLoopLogsUndeliveredError(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	server, client := net.Pipe()
	conn := NewConnection(server, map[string]Handler{
		"soft": func(Envelope) (*Envelope, error) {
			return nil, errors.New("bad input")
		},
	})
	done := make(chan error, 1)
	go func() { done <- conn.ReadLoop() }()

	env, _ := NewEnvelope("soft", nil)
	if err := WriteEnvelope(client, env); err != nil {
		t.Fatalf("write: %v", err)
	}
	client.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ReadLoop = %v, want nil after the peer closed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not exit after the peer closed")
	}
	if !strings.Contains(logs.String(), "failed to send error reply") {
		t.Errorf("logs = %q, want the undelivered error reply", logs.String())
	}
}

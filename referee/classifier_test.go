package referee

import (
	"errors"
	"testing"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

func TestRandomClassifierRange(t *testing.T) {
	c := NewRandomClassifier(42)
	seen := make(map[uint8]bool)
	for i := 0; i < 2000; i++ {
		s := c.Classify(&model.Snapshot{})
		if s < 1 || s > MaxHandSignal {
			t.Fatalf("Classify() = %d, want 1..%d", s, MaxHandSignal)
		}
		seen[s] = true
	}
	if len(seen) != MaxHandSignal {
		t.Errorf("saw %d distinct signals, want %d", len(seen), MaxHandSignal)
	}
}

func TestRandomClassifierSeeded(t *testing.T) {
	a, b := NewRandomClassifier(7), NewRandomClassifier(7)
	for i := 0; i < 50; i++ {
		if x, y := a.Classify(nil), b.Classify(nil); x != y {
			t.Fatalf("draw %d: %d != %d with the same seed", i, x, y)
		}
	}
}

func TestDetectedClassifier(t *testing.T) {
	c := DetectedClassifier{Fallback: fixedClassifier(9)}
	tests := []struct {
		signal *uint8
		want   uint8
	}{
		{nil, 9},
		{ptr(4), 4},
		{ptr(0), 9},
		{ptr(17), 9},
	}
	for _, tc := range tests {
		if got := c.Classify(&model.Snapshot{HandSignal: tc.signal}); got != tc.want {
			t.Errorf("Classify(%v) = %d, want %d", tc.signal, got, tc.want)
		}
	}
}

func TestNewClassifier(t *testing.T) {
	if c, err := NewClassifier(ClassifierRandom, 1); err != nil {
		t.Errorf("NewClassifier(random) error: %v", err)
	} else if _, ok := c.(*RandomClassifier); !ok {
		t.Errorf("NewClassifier(random) = %T", c)
	}
	if c, err := NewClassifier(ClassifierDetected, 1); err != nil {
		t.Errorf("NewClassifier(detected) error: %v", err)
	} else if _, ok := c.(DetectedClassifier); !ok {
		t.Errorf("NewClassifier(detected) = %T", c)
	}
	if _, err := NewClassifier("oracle", 1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewClassifier(oracle) = %v, want ErrInvalidConfig", err)
	}
}

func TestConfigValidate(t *testing.T) {
	c := Config{ReportingWindow: 10 * time.Second, TransmitDelay: -1, MaxAttempts: 0}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if c.TransmitDelay != 0 || c.MaxAttempts != 1 || c.RetryInterval <= 0 || c.Classifier != ClassifierDetected {
		t.Errorf("Validate() left %+v", c)
	}

	bad := []Config{
		{ReportingWindow: 0},
		{ReportingWindow: 5 * time.Second, TransmitDelay: 5 * time.Second},
		{ReportingWindow: 5 * time.Second, Classifier: "oracle"},
	}
	for _, c := range bad {
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidConfig", c, err)
		}
	}
}

func ptr(v uint8) *uint8 { return &v }

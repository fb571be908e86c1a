package referee

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid referee config")

// Classifier names accepted in Config.Classifier.
const (
	ClassifierRandom   = "random"
	ClassifierDetected = "detected"
)

// Config controls when and how often a referee signal is reported.
type Config struct {
	// ReportingWindow is how long an episode lives after the whistle.
	ReportingWindow time.Duration `json:"reportingWindow" yaml:"reporting_window"`
	// TransmitDelay postpones the report inside the window, e.g. to give a
	// classifier time to settle. Must be shorter than ReportingWindow.
	TransmitDelay time.Duration `json:"transmitDelay" yaml:"transmit_delay"`
	MaxAttempts   int           `json:"maxAttempts" yaml:"max_attempts"`
	RetryInterval time.Duration `json:"retryInterval" yaml:"retry_interval"`
	Classifier    string        `json:"classifier" yaml:"classifier"`
	// Seed makes the random classifier reproducible. Zero picks a seed from
	// the clock.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		ReportingWindow: 20 * time.Second,
		MaxAttempts:     1,
		RetryInterval:   time.Second,
		Classifier:      ClassifierDetected,
	}
}

// Validate fills zero values with defaults and rejects settings that would
// keep an episode from ever reporting.
func (c *Config) Validate() error {
	if c.ReportingWindow <= 0 {
		return fmt.Errorf("%w: reporting_window must be positive, got %s", ErrInvalidConfig, c.ReportingWindow)
	}
	if c.TransmitDelay < 0 {
		c.TransmitDelay = 0
	}
	if c.TransmitDelay >= c.ReportingWindow {
		return fmt.Errorf("%w: transmit_delay %s does not fit in reporting_window %s",
			ErrInvalidConfig, c.TransmitDelay, c.ReportingWindow)
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second
	}
	switch c.Classifier {
	case "":
		c.Classifier = ClassifierDetected
	case ClassifierRandom, ClassifierDetected:
	default:
		return fmt.Errorf("%w: unknown classifier %q", ErrInvalidConfig, c.Classifier)
	}
	return nil
}

package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/nstehr/pitch/pitch-core/model"
)

// Runtime holds process settings that come from the environment rather
// than the configuration file.
type Runtime struct {
	Socket             string `env:"PITCH_SOCKET"                envDefault:"/tmp/pitch.sock"`
	ConfigPath         string `env:"PITCH_CONFIG"`
	PlayerNumber       uint8  `env:"PITCH_PLAYER_NUMBER"`
	TeamNumber         uint8  `env:"PITCH_TEAM_NUMBER"`
	GameControllerAddr string `env:"PITCH_GAME_CONTROLLER_ADDR"`
	LogLevel           string `env:"PITCH_LOG_LEVEL"             envDefault:"info"`
	LogFormat          string `env:"PITCH_LOG_FORMAT"            envDefault:"text"`
	Metrics            bool   `env:"PITCH_METRICS"`
	RecordPath         string `env:"PITCH_RECORD"`
}

// LoadRuntime reads Runtime from the environment.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	return rt, nil
}

// Apply overrides file settings with the non-zero environment values.
func (rt Runtime) Apply(cfg *Config) {
	if rt.PlayerNumber != 0 {
		cfg.PlayerNumber = model.PlayerNumber(rt.PlayerNumber)
	}
	if rt.TeamNumber != 0 {
		cfg.Radio.TeamNumber = rt.TeamNumber
	}
	if rt.GameControllerAddr != "" {
		cfg.Radio.GameControllerAddr = rt.GameControllerAddr
	}
}

// Level parses LogLevel, falling back to info.
func (rt Runtime) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(rt.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

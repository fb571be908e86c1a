package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nstehr/pitch/pitch-core/behavior"
	"github.com/nstehr/pitch/pitch-core/model"
	"github.com/nstehr/pitch/pitch-core/referee"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	player_number INTEGER NOT NULL,
	started_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	cycle_time    TEXT NOT NULL,
	primary_state TEXT NOT NULL,
	role          TEXT NOT NULL,
	action        TEXT NOT NULL,
	injected      INTEGER NOT NULL,
	motion_kind   TEXT NOT NULL,
	command_json  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS reports (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	cycle_time    TEXT NOT NULL,
	episode_id    TEXT NOT NULL,
	state         TEXT NOT NULL,
	opened        INTEGER NOT NULL,
	expired       INTEGER NOT NULL,
	sent          INTEGER NOT NULL,
	hand_signal   INTEGER,
	error         TEXT,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Recorder appends decisions and referee reports to a SQLite database so
// matches and simulations can be inspected afterwards.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (or creates) the database at path. ":memory:" keeps it
// in memory.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

// StartRun registers a new run and returns its id.
func (r *Recorder) StartRun(source string, player model.PlayerNumber) (string, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(
		`INSERT INTO runs (run_id, source, player_number, started_at) VALUES (?, ?, ?, ?)`,
		id, source, int(player), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// RecordDecision stores one scheduler decision.
func (r *Recorder) RecordDecision(runID string, snap *model.Snapshot, d behavior.Decision) error {
	cmd, err := json.Marshal(d.Command)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	robot := snap.World.Robot
	_, err = r.db.Exec(
		`INSERT INTO decisions (run_id, cycle_time, primary_state, role, action, injected, motion_kind, command_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, snap.Now().UTC().Format(time.RFC3339Nano), string(robot.PrimaryState), string(robot.Role),
		d.Label(), d.Injected, string(d.Command.Kind), string(cmd),
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// RecordReport stores a reporter cycle that changed something. Quiet
// cycles are skipped.
func (r *Recorder) RecordReport(runID string, at time.Time, out referee.Outcome, sendErr error) error {
	if !out.Opened && !out.Expired && !out.Attempted {
		return nil
	}
	var signal, errText any
	if out.Report != nil {
		signal = int(out.Report.HandSignal)
	}
	if sendErr != nil {
		errText = sendErr.Error()
	}
	_, err := r.db.Exec(
		`INSERT INTO reports (run_id, cycle_time, episode_id, state, opened, expired, sent, hand_signal, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, at.UTC().Format(time.RFC3339Nano), out.EpisodeID, string(out.State),
		out.Opened, out.Expired, out.Sent, signal, errText,
	)
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

// ActionCounts returns how often each action won during a run.
func (r *Recorder) ActionCounts(runID string) (map[string]int, error) {
	rows, err := r.db.Query(`SELECT action, COUNT(*) FROM decisions WHERE run_id = ? GROUP BY action`, runID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

// SentReports returns the number of successfully sent reports per episode.
func (r *Recorder) SentReports(runID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT episode_id, SUM(sent) FROM reports WHERE run_id = ? GROUP BY episode_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	sent := make(map[string]int)
	for rows.Next() {
		var episode string
		var n int
		if err := rows.Scan(&episode, &n); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		sent[episode] = n
	}
	return sent, rows.Err()
}

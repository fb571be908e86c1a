package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nstehr/pitch/pitch-core/agent"
	"github.com/nstehr/pitch/pitch-core/config"
	"github.com/nstehr/pitch/pitch-core/ipc"
	"github.com/nstehr/pitch/pitch-core/radio"
	"github.com/nstehr/pitch/pitch-core/telemetry"
)

const banner = `
██████╗ ██╗████████╗ ██████╗██╗  ██╗
██╔══██╗██║╚══██╔══╝██╔════╝██║  ██║
██████╔╝██║   ██║   ██║     ███████║
██╔═══╝ ██║   ██║   ██║     ██╔══██║
██║     ██║   ██║   ╚██████╗██║  ██║
╚═╝     ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝

Per-Cycle Soccer Robot Decisions`

type runOptions struct {
	configPath      string
	socket          string
	player          uint8
	team            uint8
	gcAddr          string
	metrics         bool
	summaryInterval time.Duration
	record          string
	watch           bool
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the robot framework over a unix socket",
		Long: `Run the decision core. Each framework connection gets its own scheduler
and referee reporter; reports go to the game controller over UDP.

Flags override the PITCH_* environment, which overrides the config file.

Examples:
  # Defaults: player 1, socket /tmp/pitch.sock
  pitch run

  # Config file with hot reload and a decision log
  pitch run -c pitch.yaml --record match.db

  # Fixed game controller and metrics summaries in the log
  pitch run --team 24 --gc-addr 10.0.0.1 --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDaemon(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default from PITCH_CONFIG)")
	cmd.Flags().StringVar(&opts.socket, "socket", "", "Unix socket path (default from PITCH_SOCKET)")
	cmd.Flags().Uint8Var(&opts.player, "player", 0, "Player number 1-7 (overrides config)")
	cmd.Flags().Uint8Var(&opts.team, "team", 0, "Team number (overrides config)")
	cmd.Flags().StringVar(&opts.gcAddr, "gc-addr", "", "Game controller host; learned from its packets when empty")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Log metric summaries")
	cmd.Flags().DurationVar(&opts.summaryInterval, "metrics-interval", 30*time.Second, "Interval between metric summaries")
	cmd.Flags().StringVar(&opts.record, "record", "", "SQLite file to record decisions and reports into")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "Reload the config file when it changes")

	return cmd
}

// runtime merges the flags into the environment settings.
func (o *runOptions) runtime() (config.Runtime, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return rt, err
	}
	if o.configPath != "" {
		rt.ConfigPath = o.configPath
	}
	if o.socket != "" {
		rt.Socket = o.socket
	}
	if o.player != 0 {
		rt.PlayerNumber = o.player
	}
	if o.team != 0 {
		rt.TeamNumber = o.team
	}
	if o.gcAddr != "" {
		rt.GameControllerAddr = o.gcAddr
	}
	if o.metrics {
		rt.Metrics = true
	}
	if o.record != "" {
		rt.RecordPath = o.record
	}
	return rt, nil
}

func (a *App) runDaemon(ctx context.Context, opts *runOptions) error {
	fmt.Fprintln(a.stdout, banner)

	rt, err := opts.runtime()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rt.ConfigPath, rt)
	if err != nil {
		return err
	}
	slog.Info("starting pitch", "version", Version, "player", cfg.PlayerNumber, "team", cfg.Radio.TeamNumber)

	var metrics *telemetry.Metrics
	if rt.Metrics {
		summary := telemetry.NewSummary()
		defer summary.Shutdown(context.Background())
		metrics, err = telemetry.NewMetrics(summary.Provider(), Version)
		if err != nil {
			return err
		}
		go summary.Run(ctx, opts.summaryInterval)
	}

	var recorder *telemetry.Recorder
	if rt.RecordPath != "" {
		recorder, err = telemetry.OpenRecorder(rt.RecordPath)
		if err != nil {
			return fmt.Errorf("open recorder: %w", err)
		}
		defer recorder.Close()
		slog.Info("recording decisions", "path", rt.RecordPath)
	}

	var sendOpts []radio.Option
	if metrics != nil {
		sendOpts = append(sendOpts, radio.WithSendHook(func(err error) {
			metrics.RecordRadioSend(ctx, err)
		}))
	}
	sender, err := radio.Listen(cfg.Radio, sendOpts...)
	if err != nil {
		return err
	}
	defer sender.Close()
	go sender.Run(ctx)

	var watcher *agent.Watcher
	if rt.ConfigPath != "" && opts.watch {
		watcher, err = agent.NewWatcher(rt.ConfigPath, *cfg, agent.WithOverrides(rt))
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(rt.Socket); err != nil {
		return fmt.Errorf("clean up socket %s: %w", rt.Socket, err)
	}
	listener, err := net.Listen("unix", rt.Socket)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", rt.Socket, err)
	}
	defer os.Remove(rt.Socket)
	slog.Info("listening on domain socket", "path", rt.Socket)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	d := &daemon{
		cfg:      *cfg,
		sender:   sender,
		metrics:  metrics,
		recorder: recorder,
		watcher:  watcher,
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				slog.Info("shutting down")
				return nil
			default:
				slog.Error("failed to accept connection", "error", err)
				continue
			}
		}
		slog.Info("new connection accepted")
		go d.handleConn(conn)
	}
}

// daemon holds what every framework connection shares.
type daemon struct {
	cfg      config.Config
	sender   *radio.Sender
	metrics  *telemetry.Metrics
	recorder *telemetry.Recorder
	watcher  *agent.Watcher
}

func (d *daemon) handleConn(conn net.Conn) {
	cfg := d.cfg
	if d.watcher != nil {
		cfg = d.watcher.Current()
	}

	c := ipc.NewConnection(conn, nil)
	a, err := agent.New(c, cfg, agent.Options{
		Sink:     d.sender,
		Metrics:  d.metrics,
		Recorder: d.recorder,
	})
	if err != nil {
		slog.Error("failed to create agent", "error", err)
		conn.Close()
		return
	}
	if d.watcher != nil {
		cancel := d.watcher.Subscribe(a.Apply)
		defer cancel()
	}

	c.RegisterHandler(ipc.TypeHello, a.HandleHello)
	c.RegisterHandler(ipc.TypeWorldSnapshot, a.HandleWorldSnapshot)
	if err := c.ReadLoop(); err != nil {
		slog.Error("connection closed", "player", a.Player, "session", a.SessionID, "error", err)
	}
}

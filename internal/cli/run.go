package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jetsetilly/crowdcade/internal/admin"
	"github.com/jetsetilly/crowdcade/internal/arbiter"
	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/chat"
	"github.com/jetsetilly/crowdcade/internal/config"
	"github.com/jetsetilly/crowdcade/internal/curated"
	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/fabric"
	"github.com/jetsetilly/crowdcade/internal/logger"
	"github.com/jetsetilly/crowdcade/internal/notifications"
	"github.com/jetsetilly/crowdcade/internal/probe"
	"github.com/jetsetilly/crowdcade/internal/rng"
	"github.com/jetsetilly/crowdcade/internal/save"
	"github.com/jetsetilly/crowdcade/internal/statsdash"
	"github.com/jetsetilly/crowdcade/internal/supervisor"
	"github.com/jetsetilly/crowdcade/internal/wavdump"
)

// RunCmd starts the core: it wires config, the save manager's crash-recovery
// restore, the arbiter, the memory probe, the broadcast fabric, the admin
// surface, and the chat ingress adapter around the supervisor's frame loop,
// then blocks until an OS signal or the supervisor itself asks to stop.
func RunCmd() *cobra.Command {
	var romPath, biosPath, saveDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the crowdcade core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if romPath != "" {
				cfg.RomPath = romPath
			}
			if biosPath != "" {
				cfg.BiosPath = biosPath
			}
			if saveDir != "" {
				cfg.SaveDir = saveDir
			}
			return runCore(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&romPath, "rom", "", "path to console ROM (overrides ROM_PATH)")
	cmd.Flags().StringVar(&biosPath, "bios", "", "path to console BIOS (overrides BIOS_PATH)")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "snapshot directory (overrides SAVE_DIR)")

	return cmd
}

// runCore performs supervisor-fatal validation before the frame loop starts,
// then wires every component and runs until cancelled.
func runCore(ctx context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger.Init(level, os.Stdout)

	if cfg.RomPath == "" {
		return curated.Errorf(curated.Supervisor, "rom_path is required")
	}
	romHeader, err := os.ReadFile(cfg.RomPath)
	if err != nil {
		return curated.Op(curated.Supervisor, "read rom", "%w", err)
	}
	if cfg.BiosPath != "" {
		if _, err := os.Stat(cfg.BiosPath); err != nil {
			return curated.Op(curated.Supervisor, "stat bios", "%w", err)
		}
	}
	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return curated.Op(curated.Supervisor, "create save directory", "%w", err)
	}

	notify := &notifications.Broadcaster{}
	notify.Subscribe(logNotifier{})

	gameCode := gbaGameCode(romHeader)
	emu := emulator.NewFake(gameCode)

	saver := save.New(cfg.SaveDir)
	if !saver.CleanShutdownMarkerPresent() {
		if err := notify.Notify(notifications.NotifyCrashedOnBoot); err != nil {
			logger.Debugf(logger.Allow, "save", "notify crashed on boot: %v", err)
		}
	}
	if err := restore(saver, emu, cfg.AutoRestore); err != nil {
		logger.Warnf(logger.Allow, "save", "startup restore: %v", err)
	}

	startMode := arbiter.Anarchy
	if cfg.DefaultMode == "democracy" {
		startMode = arbiter.Democracy
	}
	arbCfg := arbiter.DefaultConfig()
	arbCfg.VoteWindow = cfg.DemocracyWindowSecs
	arbCfg.RateLimit = cfg.RateLimitMs
	if cfg.StartThrottleSecs > 0 {
		arbCfg.StartThrottle = cfg.StartThrottleSecs
	}
	arbCfg.MetaVoteThreshold = cfg.ModeSwitchThreshold
	arbCfg.MetaVoteCooldown = cfg.ModeSwitchCooldownSecs

	arb := arbiter.New(arbCfg, rng.New(), startMode, func(m arbiter.Mode) {
		logger.Logf(logger.Allow, "arbiter", "mode switched to %s", m)
		notice := notifications.NotifyModeAnarchy
		if m == arbiter.Democracy {
			notice = notifications.NotifyModeDemocracy
		}
		if err := notify.Notify(notice); err != nil {
			logger.Debugf(logger.Allow, "arbiter", "notify mode switch: %v", err)
		}
	})

	probeSrc := probe.New(emu, emu.GameCode())
	if !probeSrc.Recognised() {
		logger.Warnf(logger.Allow, "probe", "unrecognised game code %q, party/location telemetry disabled", gameCode)
	}

	supCfg := supervisor.DefaultConfig()

	heldKeys := &heldKeyRelay{}
	hub := fabric.New(heldKeys, cfg.AllowAnonymousKeyboard)
	hub.SetNotifier(notify)

	var dumper *wavdump.Dumper
	if cfg.WavDumpPath != "" {
		dumper = wavdump.New(cfg.WavDumpPath)
	}
	pub := &fanoutPublisher{hub: hub, wav: dumper}

	sup := supervisor.New(supCfg, emu, arb, saver, pub, probeSrc)
	heldKeys.target = sup
	sup.SetNotifier(notify)

	nowMs := func() int64 { return sup.Uptime().Milliseconds() }

	adminSrv := admin.New(arb, sup, cfg.AdminToken, nowMs)
	adminHTTP := &http.Server{
		Addr:         cfg.AdminPort,
		Handler:      adminSrv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	if !hasHostPort(cfg.AdminPort) {
		adminHTTP.Addr = ":" + cfg.AdminPort
	}

	fabricHTTP := &http.Server{
		Addr:    hostPort(cfg.WSHost, cfg.WSPort),
		Handler: fabric.Router(hub, cfg.OverlayCapabilityToken),
	}

	if statsdash.Available() && cfg.StatsDashboard {
		statsdash.Launch(os.Stdout, &gaugeAdapter{arb: arb, sup: sup, nowMs: nowMs})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var chatAdapter *chat.Adapter
	if cfg.ChatURL != "" {
		chatAdapter = chat.New(cfg.ChatURL, cfg.ChatToken, arb, nowMs)
		go func() {
			if err := chatAdapter.Run(runCtx); err != nil {
				logger.Errorf(logger.Allow, "chat", "adapter stopped: %v", err)
			}
		}()
	}

	go func() {
		logger.Logf(logger.Allow, "fabric", "listening on %s", fabricHTTP.Addr)
		if err := fabricHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf(logger.Allow, "fabric", "listener failed: %v", err)
		}
	}()
	go func() {
		logger.Logf(logger.Allow, "admin", "listening on %s", adminHTTP.Addr)
		if err := adminHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf(logger.Allow, "admin", "listener failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Logf(logger.Allow, "supervisor", "shutdown signal received")
		errCh := make(chan error, 1)
		sup.SubmitCommand(supervisor.Command{Kind: supervisor.CmdShutdown, Err: errCh})
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
		}
		cancel()
	}()

	runErr := sup.Run(runCtx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = adminHTTP.Shutdown(shutdownCtx)
	_ = fabricHTTP.Shutdown(shutdownCtx)
	if dumper != nil {
		if err := dumper.Close(); err != nil {
			logger.Errorf(logger.Allow, "wavdump", "flush on shutdown: %v", err)
		}
	}

	return runErr
}

// restore implements the save manager's startup policy: a present
// clean-shutdown marker means the previous exit was orderly, so it is
// consumed and the emulator starts fresh from ROM; its absence means a
// crash, so the newest readable snapshot is loaded, falling back through
// older snapshots until one loads cleanly or the list is exhausted.
func restore(saver *save.Manager, emu emulator.Capability, autoRestore bool) error {
	if saver.CleanShutdownMarkerPresent() {
		return saver.RemoveCleanShutdownMarker()
	}
	if !autoRestore {
		return nil
	}

	names, err := saver.AllNewestFirst()
	if err != nil {
		return err
	}
	for _, name := range names {
		blob, err := saver.Read(name)
		if err != nil {
			logger.Warnf(logger.Allow, "save", "snapshot %s unreadable: %v", name, err)
			continue
		}
		if err := emu.LoadState(blob); err != nil {
			logger.Warnf(logger.Allow, "save", "snapshot %s corrupt: %v", name, err)
			continue
		}
		logger.Logf(logger.Allow, "save", "resumed from snapshot %s", name)
		return nil
	}

	logger.Warnf(logger.Allow, "save", "no usable snapshot found, starting fresh from ROM")
	return nil
}

// gbaGameCode extracts the 4-byte game code at the GBA ROM header's fixed
// offset. A short or unreadable header yields an empty code, which leaves
// probe.DetectGame returning Unknown rather than panicking.
func gbaGameCode(rom []byte) string {
	const gameCodeOffset = 0xAC
	const gameCodeLen = 4
	if len(rom) < gameCodeOffset+gameCodeLen {
		return ""
	}
	return string(rom[gameCodeOffset : gameCodeOffset+gameCodeLen])
}

func hostPort(host, port string) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%s", host, port)
}

func hasHostPort(addr string) bool {
	for _, c := range addr {
		if c == ':' {
			return true
		}
	}
	return false
}

// logNotifier is the default notifications.Notify subscriber: every notice
// that isn't otherwise surfaced to an operator still lands in the log.
type logNotifier struct{}

func (logNotifier) Notify(n notifications.Notice) error {
	logger.Logf(logger.Allow, "notify", "%s", n)
	return nil
}

// fanoutPublisher forwards every outgoing event to the broadcast fabric and
// mirrors audio chunks to the optional WAV diagnostic dump.
type fanoutPublisher struct {
	hub *fabric.Hub
	wav *wavdump.Dumper
}

func (p *fanoutPublisher) PublishFrame(f emulator.Frame) { p.hub.PublishFrame(f) }

func (p *fanoutPublisher) PublishAudio(a emulator.AudioChunk) {
	p.hub.PublishAudio(a)
	if p.wav != nil {
		p.wav.Write(a)
	}
}

func (p *fanoutPublisher) PublishState(data []byte)    { p.hub.PublishState(data) }
func (p *fanoutPublisher) PublishParty(data []byte)    { p.hub.PublishParty(data) }
func (p *fanoutPublisher) PublishLocation(data []byte) { p.hub.PublishLocation(data) }

// gaugeAdapter satisfies statsdash.Gauges from the arbiter's and
// supervisor's already-exported read-only surfaces.
type gaugeAdapter struct {
	arb   *arbiter.Arbiter
	sup   *supervisor.Supervisor
	nowMs func() int64
}

func (g *gaugeAdapter) FPS() float64 { return g.sup.FPS() }
func (g *gaugeAdapter) Mode() string { return g.arb.Mode().String() }
func (g *gaugeAdapter) QueueDepth() int {
	return g.arb.Snapshot(g.nowMs()).QueueDepth
}

// heldKeyRelay breaks the construction cycle between the fabric hub (which
// needs a KeyApplier) and the supervisor (which needs the hub, wrapped in a
// Publisher, before it exists). The hub is built first against a relay
// whose target is filled in once the supervisor is constructed.
type heldKeyRelay struct {
	target keyApplier
}

type keyApplier interface {
	SetHeldKey(clientID string, b button.Button, down bool)
	ReleaseClient(clientID string)
}

func (r *heldKeyRelay) SetHeldKey(clientID string, b button.Button, down bool) {
	if r.target != nil {
		r.target.SetHeldKey(clientID, b, down)
	}
}

func (r *heldKeyRelay) ReleaseClient(clientID string) {
	if r.target != nil {
		r.target.ReleaseClient(clientID)
	}
}

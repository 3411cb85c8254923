package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notune/speechcap/internal/capture"
	"github.com/notune/speechcap/internal/config"
	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
	"github.com/notune/speechcap/internal/focus"
	"github.com/notune/speechcap/internal/hotkey"
	"github.com/notune/speechcap/internal/inject"
	"github.com/notune/speechcap/internal/sink"
)

func newListenCmd() *cobra.Command {
	var injectMethod string
	var autoStart bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Dictate into the focused application",
		Long: `Capture microphone audio on a global hotkey and deliver the transcript
to the focused application as keystrokes or a clipboard paste.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("inject") {
				cfg.Listen.InjectMethod = injectMethod
			}
			if cmd.Flags().Changed("auto-start") {
				cfg.Listen.AutoStart = autoStart
			}
			switch cfg.Listen.InjectMethod {
			case "type", "paste", "none":
			default:
				return fmt.Errorf("invalid inject method %q", cfg.Listen.InjectMethod)
			}
			return runListen(cmd)
		},
	}

	cmd.Flags().StringVar(&injectMethod, "inject", "", `transcript delivery: "type", "paste" or "none"`)
	cmd.Flags().BoolVar(&autoStart, "auto-start", false, "start capturing immediately instead of waiting for the hotkey")

	return cmd
}

func runListen(cmd *cobra.Command) error {
	disp := events.NewDispatcher(log, events.WithLatestOnlyLevels())

	loader := engine.NewLoader(
		func() (engine.Transcriber, error) { return engine.New(&cfg.Engine) },
		func(status string) { disp.Publish(events.StatusChanged{Text: status}) },
		log,
	)

	// Load before the first hotkey press so dictation starts instantly.
	tr, err := loader.EnsureLoaded(cmd.Context())
	if err != nil {
		disp.Close()
		return err
	}

	snk := sink.NewDictation(tr, disp, log)
	injector := inject.NewInjector(cfg.Listen.InjectMethod, cfg.Listen.SelectTranscript)
	coord := focus.New(log)
	listener := hotkey.NewListener(cfg.Listen.Hotkey, cfg.Listen.HotkeyMode, log)

	if err := disp.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case events.StatusChanged:
			if e.Text != "" {
				log.Info().Msg(e.Text)
			}
		case events.TranscriptReady:
			log.Info().Str("text", e.Text).Msg("transcript ready")
			if err := injector.Inject(e.Text); err != nil {
				log.Error().Err(err).Msg("delivering transcript")
			}
		case events.CaptureFailed:
			log.Error().Err(e.Err).Msg("capture failed")
			listener.SetActive(false)
		}
	}); err != nil {
		disp.Close()
		return err
	}

	// session is owned by the event loop below; the subscriber callback
	// never touches it.
	var session *capture.Session

	startCapture := func() {
		if session != nil && session.State() == capture.StateCapturing {
			return
		}
		s, err := capture.Start(listenCaptureConfig(cfg), snk,
			capture.WithLogger(log),
			capture.WithDispatcher(disp),
			capture.WithFocus(coord),
		)
		if err != nil {
			log.Error().Err(err).Msg("starting capture")
			listener.SetActive(false)
			return
		}
		injector.Reset()
		session = s
	}

	stopCapture := func(discard bool) {
		if session == nil {
			return
		}
		s := session
		session = nil

		if discard {
			s.Cancel()
			snk.Discard()
			return
		}
		s.Stop()
		if s.Err() != nil || s.Cancelled() {
			snk.Discard()
			return
		}
		snk.Finalize(s.ID())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go listener.Start()
	log.Info().
		Str("hotkey", strings.Join(cfg.Listen.Hotkey, "+")).
		Str("mode", cfg.Listen.HotkeyMode).
		Str("inject", cfg.Listen.InjectMethod).
		Msg("ready")

	if cfg.Listen.AutoStart {
		listener.SetActive(true)
		startCapture()
	}

	for {
		select {
		case ev, ok := <-listener.Events():
			if !ok {
				stopCapture(true)
				disp.Close()
				return loader.Close()
			}
			switch ev.Type {
			case hotkey.EventStart:
				startCapture()
			case hotkey.EventStop:
				stopCapture(false)
			}

		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			stopCapture(true)
			listener.Stop()
			disp.Close()
			if err := loader.Close(); err != nil {
				log.Warn().Err(err).Msg("closing engine")
			}
			// Exit directly to avoid gohook's C cleanup crash. The OS
			// reclaims the event hook on process exit.
			os.Exit(0)
		}
	}
}

// listenCaptureConfig builds the capture config for dictation, which
// always records the microphone.
func listenCaptureConfig(cfg *config.Config) capture.Config {
	return capture.Config{
		Source:          capture.SourceMic,
		Device:          cfg.Capture.Device,
		PauseOtherAudio: cfg.Capture.PauseOtherAudio,
	}
}

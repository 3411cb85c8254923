package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/notune/speechcap/internal/capture"
	"github.com/notune/speechcap/internal/config"
	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
	"github.com/notune/speechcap/internal/focus"
	"github.com/notune/speechcap/internal/sink"
)

func newSubtitlesCmd() *cobra.Command {
	var source string
	var device string
	var interval float64

	cmd := &cobra.Command{
		Use:   "subtitles",
		Short: "Print live captions for microphone or system audio",
		Long: `Capture audio continuously and print caption lines to stdout as speech
is recognized. With --source loopback the captions follow whatever the
system is playing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("source") {
				cfg.Capture.Source = source
			}
			if cmd.Flags().Changed("device") {
				cfg.Capture.Device = device
			}
			if cmd.Flags().Changed("interval") {
				cfg.Capture.UpdateInterval = interval
			}
			switch cfg.Capture.Source {
			case "mic", "loopback":
			default:
				return fmt.Errorf("invalid source %q", cfg.Capture.Source)
			}
			return runSubtitles(cmd)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", `audio source: "mic" or "loopback"`)
	cmd.Flags().StringVar(&device, "device", "", "capture device name substring (default: system default)")
	cmd.Flags().Float64Var(&interval, "interval", 0, "seconds between caption updates")

	return cmd
}

func runSubtitles(cmd *cobra.Command) error {
	disp := events.NewDispatcher(log, events.WithLatestOnlyLevels())
	defer disp.Close()

	loader := engine.NewLoader(
		func() (engine.Transcriber, error) { return engine.New(&cfg.Engine) },
		func(status string) { disp.Publish(events.StatusChanged{Text: status}) },
		log,
	)
	tr, err := loader.EnsureLoaded(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := loader.Close(); err != nil {
			log.Warn().Err(err).Msg("closing engine")
		}
	}()

	snk := sink.NewSubtitle(tr, disp, log)
	coord := focus.New(log)

	if err := disp.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case events.SubtitleText:
			fmt.Println(e.Text)
		case events.StatusChanged:
			if e.Text != "" {
				log.Info().Msg(e.Text)
			}
		case events.CaptureFailed:
			log.Error().Err(e.Err).Msg("capture failed")
		}
	}); err != nil {
		return err
	}

	session, err := capture.Start(subtitleCaptureConfig(cfg), snk,
		capture.WithLogger(log),
		capture.WithDispatcher(disp),
		capture.WithFocus(coord),
	)
	if err != nil {
		return err
	}

	log.Info().Str("source", cfg.Capture.Source).Msg("captioning, press ctrl-c to stop")

	done := make(chan struct{})
	go func() {
		session.Wait()
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		session.Stop()
	case <-done:
	}
	return session.Err()
}

// subtitleCaptureConfig builds the capture config for captioning. Pausing
// other players only makes sense for the microphone; for loopback it would
// silence the very audio being captioned.
func subtitleCaptureConfig(cfg *config.Config) capture.Config {
	cc := capture.Config{
		Source:          capture.SourceMic,
		Device:          cfg.Capture.Device,
		UpdateInterval:  time.Duration(cfg.Capture.UpdateInterval * float64(time.Second)),
		PauseOtherAudio: cfg.Capture.PauseOtherAudio,
	}
	if cfg.Capture.Source == "loopback" {
		cc.Source = capture.SourceLoopback
		cc.Grant = &capture.LoopbackGrant{ID: uuid.NewString()}
		cc.PauseOtherAudio = false
	}
	return cc
}

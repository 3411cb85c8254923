package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
	"github.com/notune/speechcap/internal/media"
	"github.com/notune/speechcap/internal/sink"
)

func newFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "Transcribe an audio file",
		Long:  `Decode a WAV, FLAC or MP3 file and print its transcript to stdout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd, args[0])
		},
	}
}

func runFile(cmd *cobra.Command, path string) error {
	disp := events.NewDispatcher(log)
	defer disp.Close()

	loader := engine.NewLoader(
		func() (engine.Transcriber, error) { return engine.New(&cfg.Engine) },
		nil,
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

	snk := sink.NewDictation(tr, disp, log)

	// The dictation sink signals completion by clearing the status after
	// the transcript, if any, has been published.
	finished := make(chan struct{}, 1)
	var transcript string
	var got bool
	if err := disp.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case events.TranscriptReady:
			transcript = e.Text
			got = true
		case events.StatusChanged:
			if e.Text == "" {
				select {
				case finished <- struct{}{}:
				default:
				}
			}
		}
	}); err != nil {
		return err
	}

	pipe := media.NewPipeline(snk, disp, log)
	if err := <-pipe.Run(path); err != nil {
		return err
	}

	snk.Finalize(uuid.NewString())

	select {
	case <-finished:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	if !got {
		log.Info().Msg("no speech detected")
		return nil
	}
	fmt.Println(transcript)
	return nil
}

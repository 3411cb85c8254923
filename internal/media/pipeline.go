package media

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/notune/speechcap/internal/events"
	"github.com/notune/speechcap/internal/sink"
)

// Pipeline feeds a decoded file through the same sink live capture uses.
type Pipeline struct {
	snk  sink.Sink
	disp *events.Dispatcher
	log  zerolog.Logger
}

// NewPipeline creates a pipeline delivering into snk and reporting
// failures through disp.
func NewPipeline(snk sink.Sink, disp *events.Dispatcher, log zerolog.Logger) *Pipeline {
	return &Pipeline{snk: snk, disp: disp, log: log}
}

// Run decodes the file on a background goroutine and pushes the whole
// track to the sink in one shot. The returned channel yields the terminal
// error (nil on success) exactly once. The sink is untouched when decoding
// fails.
func (p *Pipeline) Run(path string) <-chan error {
	errc := make(chan error, 1)
	go func() {
		errc <- p.run(path)
	}()
	return errc
}

func (p *Pipeline) run(path string) error {
	track, err := Decode(path)
	if err != nil {
		p.log.Error().Err(err).Str("path", path).Msg("decode failed")
		p.disp.Publish(events.CaptureFailed{Err: err})
		return err
	}
	p.log.Info().Str("path", path).Dur("duration", track.Duration()).Msg("decoded audio file")

	if err := p.snk.Init(); err != nil {
		return fmt.Errorf("initializing sink: %w", err)
	}
	p.snk.Push(track.Samples)
	if err := p.snk.Close(); err != nil {
		return fmt.Errorf("closing sink: %w", err)
	}
	return nil
}

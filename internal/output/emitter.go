package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

type EventEmitter interface {
	Emit(event Event) error
}

type JSONEmitter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

type HumanEmitter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool

	errLine  *color.Color
	warnLine *color.Color
	doneLine *color.Color
	skipLine *color.Color
}

func NewHumanEmitter(stdout, stderr io.Writer, quiet, verbose, noColor bool) *HumanEmitter {
	e := &HumanEmitter{
		stdout:   stdout,
		stderr:   stderr,
		quiet:    quiet,
		verbose:  verbose,
		errLine:  color.New(color.FgRed),
		warnLine: color.New(color.FgYellow),
		doneLine: color.New(color.FgGreen),
		skipLine: color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{e.errLine, e.warnLine, e.doneLine, e.skipLine} {
			c.DisableColor()
		}
	}
	return e
}

func (e *HumanEmitter) Emit(event Event) error {
	line := event.Message
	if line == "" {
		line = string(event.Event)
	}

	switch event.Level {
	case LevelError:
		_, err := e.errLine.Fprintln(e.stderr, "ERROR:", line)
		return err
	case LevelWarn:
		if e.quiet {
			return nil
		}
		_, err := e.warnLine.Fprintln(e.stderr, "WARN:", line)
		return err
	default:
		if e.quiet && event.Event != EventRunFinished {
			return nil
		}
		if !e.verbose && (event.Event == EventItemStarted || event.Event == EventRefResolved) {
			return nil
		}
		switch event.Event {
		case EventItemFinished:
			_, err := e.doneLine.Fprintln(e.stdout, line)
			return err
		case EventItemSkipped:
			_, err := e.skipLine.Fprintln(e.stdout, line)
			return err
		default:
			_, err := fmt.Fprintln(e.stdout, line)
			return err
		}
	}
}

type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (e *MultiEmitter) Emit(event Event) error {
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			return err
		}
	}
	return nil
}

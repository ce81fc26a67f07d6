package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/marek-kar/genckl/pkg/render"
)

// Output is where Write puts the checklist: a file Write creates and closes
// or a writer owned by the caller.
type Output struct {
	path string
	w    io.Writer
}

func ToPath(path string) Output {
	return Output{path: path}
}

func ToWriter(w io.Writer) Output {
	return Output{w: w}
}

// Write flattens, renders the whole checklist, and only then touches out, so
// a render failure never leaves a truncated file behind.
func (e *Engine) Write(out Output, r render.Renderer) error {
	cl := e.Checklist()

	var buf bytes.Buffer
	if err := r.Render(&buf, cl); err != nil {
		return fmt.Errorf("render checklist: %w", err)
	}

	if out.path == "" {
		if out.w == nil {
			return errors.New("write checklist: no output path or writer")
		}
		if _, err := out.w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write checklist: %w", err)
		}
		return nil
	}

	f, err := os.Create(out.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", out.path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out.path, err)
	}
	log.Info().Str("path", out.path).Int("stigs", len(cl.STIGs)).Msg("Checklist written")
	return nil
}

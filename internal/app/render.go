package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/samvad-hq/site-connector/pkg/connector"
)

// RenderOptions controls how a result is written.
type RenderOptions struct {
	// Query is a gjson path applied to JSON results.
	Query string
	// Raw writes binary bodies verbatim instead of a size summary.
	Raw bool
}

// Render writes res to w. Absent results write nothing.
func Render(w io.Writer, res connector.Result, opts RenderOptions) error {
	if opts.Query != "" {
		if res.Kind() != connector.KindJSON {
			return fmt.Errorf("query %q needs a JSON response, got %s", opts.Query, res.Kind())
		}
		v := res.Query(opts.Query)
		if !v.Exists() {
			return fmt.Errorf("query %q matched nothing", opts.Query)
		}
		_, err := fmt.Fprintln(w, v.String())
		return err
	}

	switch res.Kind() {
	case connector.KindJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, res.Raw(), "", "  "); err != nil {
			return fmt.Errorf("format json: %w", err)
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	case connector.KindText:
		_, err := w.Write(res.Raw())
		return err
	case connector.KindBinary:
		if opts.Raw {
			_, err := w.Write(res.Raw())
			return err
		}
		_, err := fmt.Fprintf(w, "<binary body: %d bytes>\n", len(res.Raw()))
		return err
	default:
		return nil
	}
}

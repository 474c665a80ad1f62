package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ContentRenderer transforms markdown before it is printed, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	out  *termenv.Output
	echo bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithEcho prints every answer after reading it, which keeps transcripts of
// piped input readable.
func WithEcho(echo bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.echo = echo
	}
}

// NewTextHandler creates a handler for standard text IO.
// Answers are echoed by default when r is a file that is not a terminal.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		out:    termenv.NewOutput(w),
	}
	if f, ok := r.(*os.File); ok {
		h.echo = !term.IsTerminal(int(f.Fd()))
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, actions []ActionRequest) error {
	for _, act := range actions {
		switch act.Type {
		case ActionRenderStep:
			h.renderStep(act.Step)
		case ActionAskField:
			h.askField(act.Field)
		case ActionNotice:
			fmt.Fprintln(h.Writer, h.out.String("! "+act.Message).Foreground(h.out.Color("#f87171")))
		case ActionResult:
			h.renderResult(act)
		}
	}
	return nil
}

func (h *TextHandler) renderStep(s *StepView) {
	if s == nil {
		return
	}
	md := fmt.Sprintf("## %s\n\n_Step %d of %d_\n", s.Title, s.Index+1, s.Count)
	if s.Description != "" {
		md += "\n" + s.Description + "\n"
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(h.render(md)))
}

func (h *TextHandler) askField(f *FieldView) {
	if f == nil {
		return
	}
	var b strings.Builder
	b.WriteString(h.out.String(f.Label).Bold().String())
	if f.Required {
		b.WriteString(" *")
	}
	if len(f.Options) > 0 {
		opts := make([]string, len(f.Options))
		for i, o := range f.Options {
			if o == "" {
				o = "no preference"
			}
			opts[i] = fmt.Sprintf("%d) %s", i+1, o)
		}
		b.WriteString("  [" + strings.Join(opts, ", ") + "]")
	}
	if f.Range != nil {
		fmt.Fprintf(&b, "  [%g-%g]", f.Range.Min, f.Range.Max)
	}
	if f.Kind == domain.KindFile {
		b.WriteString("  (path to file")
		if f.Multiple {
			b.WriteString(", empty line when done")
		}
		b.WriteString(")")
	}
	if cur := describeValue(f.Value); cur != "" {
		b.WriteString(h.out.String("  (current: " + cur + ")").Faint().String())
	}
	fmt.Fprintln(h.Writer, b.String())
}

func (h *TextHandler) renderResult(act ActionRequest) {
	title := act.Message
	if title == "" {
		title = "Done"
	}
	fmt.Fprintln(h.Writer, h.out.String("✓ "+title).Foreground(h.out.Color("#34d399")))
	if act.Result == nil {
		return
	}
	data, err := yaml.Marshal(act.Result)
	if err != nil {
		fmt.Fprintf(h.Writer, "%v\n", act.Result)
		return
	}
	fmt.Fprint(h.Writer, string(data))
}

func (h *TextHandler) render(md string) string {
	if h.Renderer == nil {
		return md
	}
	rendered, err := h.Renderer(md)
	if err != nil {
		return md
	}
	return rendered
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			text := strings.TrimSpace(res.text)

			clean, err := SanitizeInput(text)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			if h.echo {
				fmt.Fprintln(h.Writer, clean)
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "\n%s\n", h.out.String(msg).Bold())
	return nil
}

func describeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		if files := fileNames(v); files != "" {
			return files
		}
		return fmt.Sprint(val)
	}
}

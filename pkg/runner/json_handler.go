package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// JSONHandler speaks JSON Lines for scripted clients. Each Output call
// writes one line holding the batch of actions. Each answer is one line:
// a JSON string, number, boolean or null, an object {"value": ...}, or
// bare text. null and "" keep the current value.
type JSONHandler struct {
	scanner *bufio.Scanner
	enc     *json.Encoder
}

// NewJSONHandler reads answers from r and writes actions to w.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), getMaxInputSize()+2)
	return &JSONHandler{scanner: sc, enc: json.NewEncoder(w)}
}

func (h *JSONHandler) Output(ctx context.Context, actions []ActionRequest) error {
	if len(actions) == 0 {
		return nil
	}
	return h.enc.Encode(actions)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !h.scanner.Scan() {
		if err := h.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	answer, err := decodeAnswer(h.scanner.Bytes())
	if err != nil {
		return "", err
	}
	return SanitizeInput(answer)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.enc.Encode([]ActionRequest{{Type: ActionNotice, Message: msg}})
}

// decodeAnswer flattens one input line to the text a prompt would receive.
func decodeAnswer(line []byte) (string, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return string(line), nil
	}
	if obj, ok := v.(map[string]any); ok {
		val, found := obj["value"]
		if !found {
			return "", fmt.Errorf("answer object needs a \"value\" key")
		}
		v = val
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported answer type %T", val)
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/runner"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/go-chi/chi/v5"
)

const maxUploadMemory = 32 << 20

// SessionResponse is a rendered session plus the error of the last call, if any.
type SessionResponse struct {
	ID string `json:"id"`
	*runner.RichResponse
	Error string `json:"error,omitempty"`
}

// ActionResponse carries the result of a side action and the session after it.
type ActionResponse struct {
	Result  any              `json:"result,omitempty"`
	Session *SessionResponse `json:"session"`
}

type createRequest struct {
	Params map[string]string `json:"params"`
}

type answerRequest struct {
	Value any `json:"value"`
}

// CreateSession handles POST /flows/{flow}/sessions.
// Route parameters come from the JSON body and the query string; the query wins.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "flow")

	var body createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
			return
		}
	}
	params := map[string]string{}
	for k, v := range body.Params {
		params[k] = v
	}
	for k := range r.URL.Query() {
		params[k] = r.URL.Query().Get(k)
	}

	id, f, err := s.sessions.Create(r.Context(), func(ctx context.Context, sessionID string) (flows.Flow, error) {
		deps := s.deps
		deps.Params = params
		deps.SessionID = sessionID
		deps.Hooks = deps.Hooks.Merge(s.Streams.Hooks())
		return s.open(ctx, name, deps)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Session started", "session_id", id, "flow", name)
	s.writeJSON(w, http.StatusCreated, &SessionResponse{ID: id, RichResponse: runner.Render(f)})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.List()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, f flows.Flow) (*runner.RichResponse, error) {
		return runner.Render(f), nil
	})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAnswer handles PUT /sessions/{id}/answers/{key} with {"value": ...}.
// String values are parsed like typed input, so "yes" sets a boolean.
func (s *Server) SetAnswer(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var body answerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}

	s.do(w, r, func(ctx context.Context, f flows.Flow) (*runner.RichResponse, error) {
		e := f.Engine()
		value := body.Value
		if raw, ok := value.(string); ok {
			clean, err := runner.SanitizeInput(raw)
			if err != nil {
				return nil, &schema.ValidationError{Key: key, Reason: err.Error()}
			}
			value = clean
			if fld, found := e.Definition().Field(key, e.State().Answers); found {
				if value, err = schema.ParseInput(fld, clean); err != nil {
					return nil, err
				}
			}
		}
		if err := e.SetField(key, value); err != nil {
			return nil, err
		}
		return runner.Render(f), nil
	})
}

// UploadFiles handles POST /sessions/{id}/files/{key} with one or more
// multipart "file" parts.
func (s *Server) UploadFiles(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Expected multipart form data"})
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Detail: "No file uploaded"})
		return
	}

	s.do(w, r, func(ctx context.Context, f flows.Flow) (*runner.RichResponse, error) {
		for _, h := range headers {
			fh, err := readUpload(h)
			if err != nil {
				return nil, err
			}
			if err := f.Engine().SetField(key, fh); err != nil {
				return nil, err
			}
		}
		return runner.Render(f), nil
	})
}

func readUpload(h *multipart.FileHeader) (domain.FileHandle, error) {
	src, err := h.Open()
	if err != nil {
		return domain.FileHandle{}, fmt.Errorf("open upload %q: %w", h.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return domain.FileHandle{}, fmt.Errorf("read upload %q: %w", h.Filename, err)
	}
	mimeType := h.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return domain.FileHandle{Name: h.Filename, MimeType: mimeType, Size: int64(len(data)), Data: data}, nil
}

// RemoveFile handles DELETE /sessions/{id}/files/{key}/{index}.
func (s *Server) RemoveFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Detail: "index must be a number"})
		return
	}
	s.do(w, r, func(ctx context.Context, f flows.Flow) (*runner.RichResponse, error) {
		if err := f.Engine().RemoveFile(key, index); err != nil {
			return nil, err
		}
		return runner.Render(f), nil
	})
}

// Next handles POST /sessions/{id}/next. A failed backend call still returns
// the rendered session with its error so clients can show it.
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		resp    *runner.RichResponse
		nextErr error
	)
	err := s.sessions.Do(r.Context(), id, func(ctx context.Context, f flows.Flow) error {
		resp, nextErr = runner.NextAndRender(ctx, f)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := &SessionResponse{ID: id, RichResponse: resp}
	status := http.StatusOK
	if nextErr != nil {
		status = statusFor(nextErr)
		out.Error = resp.State.LastError
		if out.Error == "" {
			out.Error = domain.UserMessage(nextErr, nextErr.Error())
		}
		s.logger.Warn("Next failed", "session_id", id, "error", nextErr)
	}
	s.writeJSON(w, status, out)
}

// Back handles POST /sessions/{id}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, f flows.Flow) (*runner.RichResponse, error) {
		f.Engine().Retreat()
		return runner.Render(f), nil
	})
}

// Reset handles POST /sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, f flows.Flow) (*runner.RichResponse, error) {
		f.Engine().Reset()
		return runner.Render(f), nil
	})
}

// Action handles POST /sessions/{id}/actions/{action}.
func (s *Server) Action(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "action")
	var out ActionResponse
	err := s.sessions.Do(r.Context(), id, func(ctx context.Context, f flows.Flow) error {
		a, ok := f.(flows.Actioner)
		if !ok {
			return fmt.Errorf("%w: %s has no actions", domain.ErrUnknownAction, f.Name())
		}
		res, err := a.Action(ctx, name)
		if err != nil {
			return err
		}
		out = ActionResponse{Result: res, Session: &SessionResponse{ID: id, RichResponse: runner.Render(f)}}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// do runs fn under the session lock and writes its rendering.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(context.Context, flows.Flow) (*runner.RichResponse, error)) {
	id := chi.URLParam(r, "id")
	var resp *runner.RichResponse
	err := s.sessions.Do(r.Context(), id, func(ctx context.Context, f flows.Flow) error {
		var err error
		resp, err = fn(ctx, f)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &SessionResponse{ID: id, RichResponse: resp})
}

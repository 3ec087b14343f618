package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/cruxtx/internal/codec"
	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/store"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txfile"
	"github.com/roach88/cruxtx/internal/vt"
)

// Error codes that are not tx.ErrorCode values.
const (
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeTooLarge   = "BODY_TOO_LARGE"
	codeInternal   = "INTERNAL"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type receiptBody struct {
	Seq      int64  `json:"seq"`
	Hash     string `json:"hash"`
	TxTime   string `json:"tx_time"`
	Inserted bool   `json:"inserted"`
}

type transactionBody struct {
	Seq    int64               `json:"seq"`
	Hash   string              `json:"hash"`
	TxTime string              `json:"tx_time"`
	Log    jsoniter.RawMessage `json:"log"`
}

type historyBody struct {
	ID      string      `json:"id"`
	Entries []entryBody `json:"entries"`
}

type occurrencesBody struct {
	OpHash  string      `json:"op_hash"`
	Entries []entryBody `json:"entries"`
}

type entryBody struct {
	Seq        int64               `json:"seq"`
	Position   int                 `json:"position"`
	TxTime     string              `json:"tx_time"`
	Kind       string              `json:"kind"`
	OpHash     string              `json:"op_hash"`
	StartValid *string             `json:"start_valid,omitempty"`
	EndValid   *string             `json:"end_valid,omitempty"`
	Op         jsoniter.RawMessage `json:"op"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.Latest(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, codeInternal, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"latest": latest,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	f, err := txfile.Parse(data, requestFormat(r))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	log, err := f.Build()
	if err != nil {
		s.writeBuildError(w, err)
		return
	}

	receipt, err := s.store.Submit(r.Context(), log)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	status := http.StatusCreated
	if !receipt.Inserted {
		status = http.StatusOK
	}
	s.writeJSON(w, status, receiptBody{
		Seq:      receipt.Seq,
		Hash:     receipt.Hash,
		TxTime:   formatTxTime(receipt.TxTime),
		Inserted: receipt.Inserted,
	})
}

// requestFormat maps the Content-Type to a transaction file format.
// Anything that is not YAML is treated as JSON.
func requestFormat(r *http.Request) txfile.Format {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return txfile.FormatYAML
	default:
		return txfile.FormatJSON
	}
}

func (s *Server) handleReadTx(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseInt(chi.URLParam(r, "seq"), 10, 64)
	if err != nil || seq < 1 {
		s.writeError(w, http.StatusBadRequest, codeBadRequest,
			fmt.Errorf("invalid sequence number %q", chi.URLParam(r, "seq")))
		return
	}

	t, err := s.store.ReadTx(r.Context(), seq)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, codeNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	body, err := codec.MarshalLog(t.Log)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transactionBody{
		Seq:    t.Seq,
		Hash:   t.Hash,
		TxTime: formatTxTime(t.TxTime),
		Log:    body,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	id, err := doc.ParseID(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	var kinds []tx.Kind
	for _, name := range r.URL.Query()["kind"] {
		k, err := tx.ParseKind(name)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, codeBadRequest, err)
			return
		}
		kinds = append(kinds, k)
	}

	entries, err := s.store.History(r.Context(), id, kinds...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	out, err := entryBodies(entries)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	s.writeJSON(w, http.StatusOK, historyBody{ID: id.String(), Entries: out})
}

func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if !isOpHash(hash) {
		s.writeError(w, http.StatusBadRequest, codeBadRequest,
			fmt.Errorf("invalid operation hash %q", hash))
		return
	}

	entries, err := s.store.Occurrences(r.Context(), hash)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	out, err := entryBodies(entries)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	s.writeJSON(w, http.StatusOK, occurrencesBody{OpHash: hash, Entries: out})
}

// isOpHash reports whether h looks like a lowercase hex SHA-256.
func isOpHash(h string) bool {
	if len(h) != 64 {
		return false
	}
	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func entryBodies(entries []store.Entry) ([]entryBody, error) {
	out := make([]entryBody, 0, len(entries))
	for _, e := range entries {
		op, err := codec.MarshalOp(e.Op)
		if err != nil {
			return nil, err
		}
		out = append(out, entryBody{
			Seq:        e.Seq,
			Position:   e.Position,
			TxTime:     formatTxTime(e.TxTime),
			Kind:       e.Kind.String(),
			OpHash:     e.OpHash,
			StartValid: optionalTime(e.StartValid),
			EndValid:   optionalTime(e.EndValid),
			Op:         op,
		})
	}
	return out, nil
}

// writeBuildError reports a transaction that parsed but did not validate.
func (s *Server) writeBuildError(w http.ResponseWriter, err error) {
	if code := tx.CodeOf(err); code != "" {
		s.writeError(w, http.StatusUnprocessableEntity, string(code), err)
		return
	}
	s.writeError(w, http.StatusBadRequest, codeBadRequest, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func formatTxTime(t time.Time) string {
	return vt.At(t).String()
}

func optionalTime(t vt.Time) *string {
	if !t.Present() {
		return nil
	}
	s := t.String()
	return &s
}

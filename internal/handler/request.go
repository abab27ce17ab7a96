package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logging.FromContext(r.Context()).Warn("invalid request body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return false
	}
	return true
}

// fieldErrors accumulates validation failures across a request.
type fieldErrors []FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, FieldError{Field: field, Message: msg})
}

func (f *fieldErrors) uuid(field, raw string) uuid.UUID {
	if raw == "" {
		f.add(field, "required")
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		f.add(field, "must be a valid UUID")
		return uuid.Nil
	}
	return id
}

func (f *fieldErrors) optionalUUID(field string, raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		f.add(field, "must be a valid UUID")
		return nil
	}
	return &id
}

func (f *fieldErrors) queryInt(r *http.Request, field string) int {
	raw := r.URL.Query().Get(field)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		f.add(field, "must be a non-negative integer")
		return 0
	}
	return n
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: name, Message: "must be a valid UUID"}})
		return uuid.Nil, false
	}
	return id, true
}

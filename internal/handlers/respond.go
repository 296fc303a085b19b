package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// fieldError attributes a validation failure to a single request field.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorBody is the payload inside the error envelope.
type errorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

// errorEnvelope is the JSON shape of every non-2xx response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// validate checks request DTOs against their struct tags. Field names in
// error output come from the json tag, not the Go field name.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// respondError writes the JSON error envelope without field detail.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// respondFieldErrors writes a 422 envelope attributing failures to fields.
func respondFieldErrors(w http.ResponseWriter, fields []fieldError) {
	respondJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Error: errorBody{
		Code:    "validation",
		Message: "request validation failed",
		Fields:  fields,
	}})
}

// respondInternal logs the underlying error and writes a generic 500.
func respondInternal(w http.ResponseWriter, what string, err error) {
	slog.Error(what, "error", err)
	respondError(w, http.StatusInternalServerError, "internal", "internal server error")
}

// decodeJSON parses the request body into dst and validates it against
// the DTO's struct tags. On failure it writes the error response and
// returns false; the caller should just return.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return false
	}

	err := validate.Struct(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		respondFieldErrors(w, fields)
		return false
	}

	respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
	return false
}

// validationMessage renders one failed rule as a human-readable message.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return "is invalid"
	}
}

// uuidParam parses a UUID path parameter. On failure it writes a 400 and
// returns false.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDField parses a UUID carried in a request body field, writing
// a field error when it is malformed.
func parseUUIDField(w http.ResponseWriter, field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		respondFieldErrors(w, []fieldError{{Field: field, Message: "must be a UUID"}})
		return uuid.Nil, err
	}
	return id, nil
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	automation "github.com/vadim/automarketer/internal/domain/automation/entity"
	content "github.com/vadim/automarketer/internal/domain/content/entity"
	peakhour "github.com/vadim/automarketer/internal/domain/peakhour/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	recipient "github.com/vadim/automarketer/internal/domain/recipient/entity"
	schedule "github.com/vadim/automarketer/internal/domain/schedule/entity"
	"github.com/vadim/automarketer/internal/httpx/response"
	"github.com/vadim/automarketer/internal/storage"
)

// maxBodySize limits JSON request bodies
const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. An empty body decodes as {}.
// It writes the error response itself and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid JSON")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.Invalid(w, fieldErrors(verrs))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := jsonPath(fe.Namespace())

		switch fe.Tag() {
		case "required", "required_without":
			out[field] = "is required"
		case "email":
			out[field] = "must be a valid email"
		case "url":
			out[field] = "must be a valid URL"
		case "min", "gte":
			out[field] = "must be at least " + fe.Param()
		case "max", "lte":
			out[field] = "must be at most " + fe.Param()
		case "oneof":
			out[field] = "must be one of: " + fe.Param()
		default:
			out[field] = fmt.Sprintf("failed %q", fe.Tag())
		}
	}
	return out
}

// jsonPath drops Go type names (root and embedded structs) from a validator namespace
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

// handleDomainError maps domain errors to HTTP responses
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, publish.ErrNoTargets),
		errors.Is(err, publish.ErrInvalidTarget),
		errors.Is(err, publish.ErrEmptyBody),
		errors.Is(err, peakhour.ErrHourOutOfRange),
		errors.Is(err, peakhour.ErrEmptyPlatform),
		errors.Is(err, schedule.ErrNegativeDelay),
		errors.Is(err, schedule.ErrInvalidStatus),
		errors.Is(err, automation.ErrEmptyBusinessID),
		errors.Is(err, automation.ErrInvalidInterval),
		errors.Is(err, automation.ErrInvalidMode),
		errors.Is(err, automation.ErrNoPlatforms),
		errors.Is(err, content.ErrEmptyBusinessID),
		errors.Is(err, content.ErrEmptyBusinessName),
		errors.Is(err, recipient.ErrInvalidEmail),
		errors.Is(err, storage.ErrUnsupportedMediaType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, schedule.ErrPostNotFound),
		errors.Is(err, automation.ErrSessionNotFound),
		errors.Is(err, content.ErrRecordNotFound),
		errors.Is(err, content.ErrBusinessNotFound),
		errors.Is(err, recipient.ErrRecipientNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, schedule.ErrPostNotCancellable),
		errors.Is(err, schedule.ErrPostNotClaimed):
		response.Conflict(w, err.Error())
	case errors.Is(err, automation.ErrManagerClosed):
		response.ServiceUnavailable(w, err.Error())
	default:
		slog.Error("request failed", "error", err)
		response.InternalError(w, "internal server error")
	}
}

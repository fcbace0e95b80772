package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"tweetline/internal/apperror"
)

// Response is the envelope of every reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, body Response, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// WriteError sends a failed envelope with message.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, Response{Success: false, Message: message}, statusCode)
}

// WriteSuccess sends a successful envelope; message and data are both optional.
func WriteSuccess(w http.ResponseWriter, message string, data any, statusCode int) {
	writeJSON(w, Response{Success: true, Message: message, Data: data}, statusCode)
}

func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.Unauthenticated:
		return http.StatusUnauthorized
	case apperror.Forbidden:
		return http.StatusForbidden
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.InvalidArgument, apperror.InvalidOperation:
		return http.StatusBadRequest
	case apperror.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError maps err to its status. Upstream details are always logged and only
// reach the client when expose is set.
func WriteAppError(w http.ResponseWriter, err error, expose bool) {
	kind := apperror.KindOf(err)
	message := apperror.Message(err)

	if kind == apperror.Upstream {
		log.Printf("upstream failure: %v", err)
		if expose {
			message = err.Error()
		} else {
			message = "Internal server error"
		}
	}

	WriteError(w, message, StatusOf(kind))
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	WriteAppError(w, err, h.Cfg.ExposeErrors)
}

func validationMessage(err error) string {
	var messages []string
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, fe := range errs {
			switch fe.Tag() {
			case "required":
				messages = append(messages, fe.Field()+" is required")
			case "email":
				messages = append(messages, fe.Field()+" must be a valid email")
			case "min":
				messages = append(messages, fe.Field()+" must be at least "+fe.Param()+" characters")
			default:
				messages = append(messages, fe.Field()+" is invalid")
			}
		}
	}
	if len(messages) == 0 {
		return "Invalid request data"
	}
	return strings.Join(messages, "; ")
}

package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *app_error.AppError

// WrapHandler renders a returned AppError with the status of its kind.
// Internal errors keep their details in the log only.
func WrapHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		reqID := middleware.RequestIdFromContext(r.Context())
		message := err.Message
		if err.Kind == app_error.KindInternal {
			log.Error().Str("request_id", reqID).Str("field", err.Field).Str("error", err.Message).Msg("request failed")
			message = "internal server error"
		} else {
			log.Debug().Str("request_id", reqID).Str("kind", string(err.Kind)).Str("error", err.Message).Msg("request rejected")
		}

		WriteJSON(w, err.Code, dtos.Failure(reqID, dtos.ErrorResponse{
			Code:    err.Code,
			Kind:    string(err.Kind),
			Message: message,
			Field:   err.Field,
		}))
	}
}

func CreateResponse[T any](message string, data T, requestId string) dtos.Response[T] {
	return dtos.Response[T]{
		Message:   message,
		Data:      data,
		RequestID: requestId,
	}
}

// Respond writes data in the standard envelope.
func Respond[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {
	WriteJSON(w, status, CreateResponse(message, data, middleware.RequestIdFromContext(r.Context())))
}

// DecodeJSON reads a JSON body into dst.
func DecodeJSON(r *http.Request, dst any) *app_error.AppError {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return app_error.Validation("invalid JSON body", "body")
	}
	return nil
}

// Actor returns the authenticated user id.
func Actor(r *http.Request) (string, *app_error.AppError) {
	ident, ok := middleware.ActorFromContext(r.Context())
	if !ok || ident.ActorID == "" {
		return "", app_error.NewAppError(http.StatusUnauthorized, "user id is not found in context", "context")
	}
	return ident.ActorID, nil
}

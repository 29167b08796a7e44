package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gamestore/order-service/internal/order"
)

type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Resource string `json:"resource,omitempty"`
	ID       string `json:"id,omitempty"`
}

// respondWithDomainError renders a tagged orchestrator error with its kind
// and offending identifier; anything untagged becomes a bare 500.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var de *order.Error
	if errors.As(err, &de) {
		respondWithJSON(w, mapKindToStatusCode(de.Kind), errorResponse{
			Error:    de.Error(),
			Kind:     string(de.Kind),
			Resource: de.Resource,
			ID:       de.ID,
		})
		return
	}
	respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func mapKindToStatusCode(kind order.Kind) int {
	switch kind {
	case order.KindNotFound:
		return http.StatusNotFound
	case order.KindValidation:
		return http.StatusBadRequest
	case order.KindOutOfStock, order.KindConflict:
		return http.StatusConflict
	case order.KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

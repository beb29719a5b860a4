package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/pkg/apperrors"
	jwtutil "github.com/famsphere/famsphere-server/pkg/jwt"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// actorFromClaims maps the JWT claims onto the domain actor passed into
// every goal operation.
func actorFromClaims(claims *jwtutil.Claims) models.Actor {
	return models.Actor{
		Name: claims.Name,
		Role: models.MemberRole(claims.Role),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeDomainError maps domain error types onto HTTP status codes:
// validation errors are 400, permission errors 403, invariant violations and
// everything else 500 (except not-found style repo errors surfaced by the
// caller directly).
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *apperrors.ValidationError
	var permissionErr *apperrors.PermissionError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Msg, http.StatusBadRequest)
	case errors.As(err, &permissionErr):
		http.Error(w, permissionErr.Msg, http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

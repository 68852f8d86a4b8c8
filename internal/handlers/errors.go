package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/services"
	"github.com/anhbaysgalan1/teenpatti/internal/validation"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
)

// errorMapping pairs a sentinel error with its HTTP status and stable machine code.
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{validation.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{services.ErrTableNotFound, http.StatusNotFound, "TABLE_NOT_FOUND"},
	{engine.ErrGameNotFound, http.StatusNotFound, "GAME_NOT_FOUND"},
	{services.ErrTableFull, http.StatusConflict, "TABLE_FULL"},
	{services.ErrTableNameTaken, http.StatusConflict, "TABLE_NAME_TAKEN"},
	{services.ErrInvalidTableConfig, http.StatusBadRequest, "INVALID_TABLE_CONFIG"},
	{services.ErrIncorrectTablePassword, http.StatusForbidden, "INCORRECT_TABLE_PASSWORD"},
	{wallet.ErrInsufficientBalance, http.StatusPaymentRequired, "INSUFFICIENT_BALANCE"},
	{wallet.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{engine.ErrNotYourTurn, http.StatusConflict, "NOT_YOUR_TURN"},
	{engine.ErrAlreadyFolded, http.StatusConflict, "ALREADY_FOLDED"},
	{engine.ErrPlayerNotInGame, http.StatusForbidden, "PLAYER_NOT_IN_GAME"},
	{engine.ErrInvalidBetAmount, http.StatusBadRequest, "INVALID_BET_AMOUNT"},
	{engine.ErrInvalidAction, http.StatusConflict, "INVALID_ACTION"},
	{engine.ErrCannotStartGame, http.StatusConflict, "CANNOT_START_GAME"},
	{engine.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
}

// writeError maps err onto the response. Unknown errors are logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeErrorResponse(w, m.status, m.code, err.Error())
			return
		}
	}

	// Constraint races the services did not translate
	if database.IsUniqueConstraintError(err) || database.IsForeignKeyConstraintError(err) {
		slog.Warn("Request hit a database constraint",
			"method", r.Method,
			"path", r.URL.Path,
			"constraint", database.GetConstraintName(err),
			"error", err)
		writeErrorResponse(w, http.StatusConflict, "CONSTRAINT_VIOLATION", database.GetErrorMessage(err))
		return
	}

	code := "INTERNAL_ERROR"
	if errors.Is(err, engine.ErrInvariantViolation) {
		code = "INVARIANT_VIOLATION"
	}
	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, code, "Internal server error")
}

// Helper functions
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSONResponse(w, statusCode, map[string]string{
		"error": message,
		"code":  code,
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(validation.ErrValidation, errors.New("invalid JSON body"))
	}
	return nil
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeErrorResponse(w, http.StatusUnauthorized, "AUTH_REQUIRED", "User not authenticated")
}

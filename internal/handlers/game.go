package handlers

import (
	"net/http"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/services"
	"github.com/anhbaysgalan1/teenpatti/internal/validation"
	"github.com/go-chi/chi/v5"
)

type GameHandler struct {
	engine  engine.Engine
	results *services.ResultService
}

func NewGameHandler(eng engine.Engine, results *services.ResultService) *GameHandler {
	return &GameHandler{engine: eng, results: results}
}

func (h *GameHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{gameID}", h.GetGameState)
	r.Post("/{gameID}/bets", h.PlaceBet)
	r.Get("/{gameID}/results", h.GetResults)

	return r
}

// GetGameState returns the game as the caller may see it
func (h *GameHandler) GetGameState(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	gameID, err := validation.ParseUUID("game_id", chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.engine.GameState(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, view)
}

// PlaceBet applies one betting action for the caller
func (h *GameHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	gameID, err := validation.ParseUUID("game_id", chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var cmd dto.PlaceActionCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Validate(cmd); err != nil {
		writeError(w, r, err)
		return
	}
	cmd.GameID = gameID
	cmd.UserID = userID

	view, err := h.engine.PlaceAction(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"game_state": view,
	})
}

// GetResults lists the recorded results of a finished game
func (h *GameHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	gameID, err := validation.ParseUUID("game_id", chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := h.results.ResultsFor(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"results": results,
	})
}

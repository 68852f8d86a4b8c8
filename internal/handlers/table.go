package handlers

import (
	"net/http"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/anhbaysgalan1/teenpatti/internal/services"
	"github.com/anhbaysgalan1/teenpatti/internal/validation"
	"github.com/go-chi/chi/v5"
)

type TableHandler struct {
	tables *services.TableService
}

func NewTableHandler(tables *services.TableService) *TableHandler {
	return &TableHandler{tables: tables}
}

func (h *TableHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListTables)
	r.Post("/", h.CreateTable)
	r.Get("/{tableID}", h.GetTable)
	r.Post("/{tableID}/join", h.JoinTable)

	return r
}

// ListTables returns tables accepting players
func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tables.ListWaitingTables(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if tables == nil {
		tables = []models.Table{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"tables": tables,
		"total":  len(tables),
	})
}

// CreateTable registers a new table owned by the caller
func (h *TableHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var cmd dto.CreateTableCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Validate(cmd); err != nil {
		writeError(w, r, err)
		return
	}
	cmd.CreatedBy = userID

	table, err := h.tables.CreateTable(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, table)
}

// GetTable returns details of a specific table
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := validation.ParseUUID("table_id", chi.URLParam(r, "tableID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	table, err := h.tables.GetTable(r.Context(), tableID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, table)
}

// JoinTable seats the caller, paying the entry fee
func (h *TableHandler) JoinTable(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	tableID, err := validation.ParseUUID("table_id", chi.URLParam(r, "tableID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var cmd dto.JoinTableCommand
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &cmd); err != nil {
			writeError(w, r, err)
			return
		}
	}
	cmd.TableID = tableID
	cmd.UserID = userID

	view, err := h.tables.JoinTable(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, view)
}

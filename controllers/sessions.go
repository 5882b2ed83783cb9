package controllers

import (
	"net/http"
	"strings"

	dbpkg "maritaca/db"

	"github.com/gin-gonic/gin"
)

type initializeSessionReq struct {
	PhoneNumber string `json:"phone_number"`
	Provider    string `json:"provider"` // baileys | meta_api
}

// POST /api/sessions/initialize
// Cria (ou substitui) a sessão do tenant para o telefone informado e devolve
// o status reportado pelo provider.
func InitializeSession(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req initializeSessionReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		RespondError(c, "phone_number é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	session, status, err := sessionService(db).Initialize(c.Request.Context(), tenant, req.PhoneNumber, strings.TrimSpace(req.Provider))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondSuccess(c, gin.H{"session": session, "status": status})
}

// GET /api/sessions/status?phone_number=
// Sessão inexistente responde 200 com state=not_found (sem tocar o provider).
func GetSessionStatus(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	phone := strings.TrimSpace(c.Query("phone_number"))
	if phone == "" {
		RespondError(c, "phone_number é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	status, session, err := sessionService(db).GetStatus(c.Request.Context(), tenant, phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := gin.H{"status": status}
	if session != nil {
		out["session"] = session
	}
	RespondSuccess(c, out)
}

type disconnectSessionReq struct {
	PhoneNumber string `json:"phone_number"`
}

// DELETE /api/sessions/disconnect
func DisconnectSession(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req disconnectSessionReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		RespondError(c, "phone_number é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	if err := sessionService(db).Disconnect(c.Request.Context(), tenant, req.PhoneNumber); err != nil {
		respondServiceError(c, err)
		return
	}

	RespondSuccess(c, true)
}

// GET /api/sessions
// Lista as sessões ativas do tenant.
func GetActiveSessions(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	sessions, err := sessionService(db).ListActiveSessions(tenant)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondSuccess(c, sessions)
}

// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/repository"
)

// CampaignHandler serves the newsletter history pages of the admin panel.
type CampaignHandler struct {
	Campaigns repository.CampaignRepositoryInterface
	Sends     repository.SendRepositoryInterface
	Log       logger.Logger
}

func NewCampaignHandler(campaigns repository.CampaignRepositoryInterface, sends repository.SendRepositoryInterface, log logger.Logger) *CampaignHandler {
	return &CampaignHandler{Campaigns: campaigns, Sends: sends, Log: log}
}

// ListCampaignsHandler returns every campaign, newest first.
func (h *CampaignHandler) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Campaigns.List(r.Context())
	if err != nil {
		h.Log.Error("❌ failed to fetch campaigns", map[string]interface{}{"error": err})
		writeError(w, http.StatusInternalServerError, "Failed to fetch campaigns")
		return
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaigns": campaigns})
}

// GetCampaignSendsHandler returns the per-recipient sends of one campaign.
func (h *CampaignHandler) GetCampaignSendsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "campaignId"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if _, err := h.Campaigns.GetByID(r.Context(), id); err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		h.Log.Error("❌ failed to fetch campaign", map[string]interface{}{"campaign_id": id, "error": err})
		writeError(w, http.StatusInternalServerError, "Failed to fetch sends")
		return
	}

	sends, err := h.Sends.ListByCampaign(r.Context(), id)
	if err != nil {
		h.Log.Error("❌ failed to fetch sends", map[string]interface{}{"campaign_id": id, "error": err})
		writeError(w, http.StatusInternalServerError, "Failed to fetch sends")
		return
	}
	if sends == nil {
		sends = []*model.Send{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sends": sends})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package handlers holds the gin handlers for the public API surface.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cw-satou/astral-backend/internal/domain"
	"github.com/cw-satou/astral-backend/internal/http/response"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
	"github.com/cw-satou/astral-backend/internal/services"
)

// DiagnosisHandler serves the diagnosis flow: the generative reading,
// the fitted bracelet layout, and the stored-detail lookup.
type DiagnosisHandler struct {
	log *logger.Logger
	svc services.DiagnosisService
}

func NewDiagnosisHandler(log *logger.Logger, svc services.DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{
		log: log.With("handler", "DiagnosisHandler"),
		svc: svc,
	}
}

type birthPayload struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Place string `json:"place"`
}

type diagnoseRequest struct {
	Gender       string          `json:"gender"`
	Concerns     []string        `json:"concerns"`
	Problem      string          `json:"problem"`
	DesignPref   string          `json:"design_pref"`
	Birth        birthPayload    `json:"birth"`
	WristInnerCM json.RawMessage `json:"wrist_inner_cm"`
	BeadSizeMM   json.RawMessage `json:"bead_size_mm"`
	LineUserID   string          `json:"line_user_id"`
}

func (h *DiagnosisHandler) Diagnose(c *gin.Context) {
	var req diagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("invalid request body: %w", err))
		return
	}

	input := domain.DiagnoseInput{
		Gender:     req.Gender,
		Concerns:   req.Concerns,
		Problem:    req.Problem,
		DesignPref: req.DesignPref,
		Birth: domain.Birth{
			Date:  req.Birth.Date,
			Time:  req.Birth.Time,
			Place: req.Birth.Place,
		},
		Sizing: domain.Sizing{
			WristInnerCM: coerceFloat(req.WristInnerCM, domain.DefaultWristInnerCM),
			BeadSizeMM:   coerceInt(req.BeadSizeMM, domain.DefaultBeadSizeMM),
		},
		LineUserID: req.LineUserID,
	}

	res, err := h.svc.Diagnose(c.Request.Context(), input)
	if err != nil {
		h.log.Error("diagnose failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type stonePayload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type braceletRequest struct {
	DiagnosisID  string          `json:"diagnosis_id"`
	Stones       []stonePayload  `json:"stones_for_user"`
	WristInnerCM json.RawMessage `json:"wrist_inner_cm"`
	BeadSizeMM   json.RawMessage `json:"bead_size_mm"`
	DesignStyle  string          `json:"design_style"`
}

func (h *DiagnosisHandler) BuildBracelet(c *gin.Context) {
	var req braceletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("invalid request body: %w", err))
		return
	}

	stones := make([]domain.Stone, 0, len(req.Stones))
	for _, s := range req.Stones {
		stones = append(stones, domain.Stone{Name: s.Name, Reason: s.Reason})
	}

	input := domain.BraceletInput{
		DiagnosisID: req.DiagnosisID,
		Stones:      stones,
		Sizing: domain.Sizing{
			WristInnerCM: coerceFloat(req.WristInnerCM, domain.DefaultWristInnerCM),
			BeadSizeMM:   coerceInt(req.BeadSizeMM, domain.DefaultBeadSizeMM),
		},
		Style: domain.ParseDesignStyle(req.DesignStyle),
	}

	res, err := h.svc.BuildBracelet(c.Request.Context(), input)
	if err != nil {
		h.log.Error("build bracelet failed", "diagnosis_id", req.DiagnosisID, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type fortuneDetailRequest struct {
	DiagnosisID string `json:"diagnosis_id"`
}

func (h *DiagnosisHandler) FortuneDetail(c *gin.Context) {
	var req fortuneDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("invalid request body: %w", err))
		return
	}

	res, err := h.svc.FortuneDetail(c.Request.Context(), req.DiagnosisID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

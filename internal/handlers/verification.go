// internal/handlers/verification.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/farmveda/agritrust-backend/internal/models"
	"github.com/farmveda/agritrust-backend/internal/services"
	"github.com/farmveda/agritrust-backend/internal/utils"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// GET /verify/:code
//
// Public trust page: anyone scanning a QR code on produce packaging lands
// here. No authentication.
func (h *VerificationHandler) VerifyProductByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		utils.BadRequestResponse(c, "Verification code is required", nil)
		return
	}

	record, verified, err := h.verificationService.VerifyByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			utils.SuccessResponse(c, gin.H{"verified": false})
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if !verified {
		utils.SuccessResponse(c, gin.H{"verified": false})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"verified":          true,
		"verification_id":   record.VerificationID,
		"product":           record.Product,
		"farmer":            record.Farmer.Username,
		"overall_score":     record.OverallScore,
		"verified_at":       record.LedgerAnchoredAt,
		"blockchain_record": record.BlockchainReceipt(),
		"timeline":          record.Timeline,
	})
}

// GET /admin/verifications?status=pending
func (h *VerificationHandler) ListQueue(c *gin.Context) {
	status := models.RecordStatus(c.DefaultQuery("status", string(models.RecordStatusPending)))
	if !status.IsValid() {
		utils.BadRequestResponse(c, "Unknown verification status", nil)
		return
	}

	records, err := h.verificationService.ListByStatus(c.Request.Context(), status)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"status":  status,
		"count":   len(records),
		"records": records,
	})
}

// GET /admin/verifications/:id
func (h *VerificationHandler) GetRecord(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid verification record ID", nil)
		return
	}

	record, err := h.verificationService.GetRecord(c.Request.Context(), recordID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"record": record})
}

// POST /admin/verifications/:id/transition
func (h *VerificationHandler) Transition(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid verification record ID", nil)
		return
	}

	var req services.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	record, err := h.verificationService.Transition(c.Request.Context(), recordID, h.actorFromContext(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"record": record})
}

// GET /admin/verifications/:id/score-preview
func (h *VerificationHandler) PreviewScore(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid verification record ID", nil)
		return
	}

	score, err := h.verificationService.PreviewScore(c.Request.Context(), recordID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"complete":      score != nil,
		"overall_score": score,
	})
}

// POST /admin/products/:id/schedule-reverification
func (h *VerificationHandler) ScheduleReverification(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req struct {
		Date     time.Time                     `json:"date" validate:"required"`
		Reason   string                        `json:"reason" validate:"required"`
		Priority models.ReverificationPriority `json:"priority,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	record, err := h.verificationService.ScheduleReverification(
		c.Request.Context(), productID, req.Date, req.Reason, req.Priority, h.actorFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"record": record})
}

// GET /admin/verifications/due
func (h *VerificationHandler) DueForReverification(c *gin.Context) {
	records, err := h.verificationService.DueForReverification(c.Request.Context(), time.Now())
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// GET /admin/verifications/stats?from=2026-01-01&to=2026-02-01
func (h *VerificationHandler) GetStats(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, -1, 0)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid 'from' date, expected YYYY-MM-DD", nil)
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid 'to' date, expected YYYY-MM-DD", nil)
			return
		}
		to = parsed
	}

	stats, err := h.verificationService.GetStats(c.Request.Context(), from, to)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

func (h *VerificationHandler) actorFromContext(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if idStr, ok := utils.GetUserIDFromContext(c); ok {
		if id, err := uuid.Parse(idStr); err == nil {
			actor.ID = &id
		}
	}
	if username, exists := c.Get("username"); exists {
		if name, ok := username.(string); ok {
			actor.Name = name
		}
	}
	return actor
}

// respondError maps workflow errors onto HTTP statuses. Retryable conflicts
// get 409 so admin consoles know to refetch and retry.
func (h *VerificationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		utils.NotFoundResponse(c, "Verification record")
	case errors.Is(err, services.ErrConcurrentModification):
		utils.ConflictResponse(c, "Record was modified by another reviewer, refetch and retry")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.UnprocessableResponse(c, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, services.ErrIncompleteCriteria):
		utils.UnprocessableResponse(c, "INCOMPLETE_CRITERIA", "All three criteria scores are required for approval")
	case errors.Is(err, services.ErrRejectionReasonRequired):
		utils.UnprocessableResponse(c, "REJECTION_REASON_REQUIRED", "A rejection reason is required")
	case errors.Is(err, services.ErrLedgerAnchoringFailed):
		utils.ErrorResponse(c, http.StatusBadGateway, "LEDGER_UNAVAILABLE",
			"Ledger anchoring failed, the record is unchanged and the approval can be retried", nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

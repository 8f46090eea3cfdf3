package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apppayroll "github.com/sweldo/engine/internal/application/payroll"
)

// PayrollHandler exposes the computation engine over HTTP. Every endpoint is
// a pure transformation of the request body: nothing is stored.
type PayrollHandler struct {
	BaseHandler
	service *apppayroll.Service
	logger  *zap.Logger
}

// NewPayrollHandler creates a new PayrollHandler
func NewPayrollHandler(service *apppayroll.Service, logger *zap.Logger) *PayrollHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollHandler{service: service, logger: logger}
}

// RunRegular computes a semi-monthly Half A or Half B run
// POST /api/v1/runs/regular
func (h *PayrollHandler) RunRegular(c *gin.Context) {
	var req apppayroll.RunInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.RunRegular(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RunMonthly computes a full-month run
// POST /api/v1/runs/monthly
func (h *PayrollHandler) RunMonthly(c *gin.Context) {
	var req apppayroll.RunInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.RunMonthly(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RunSpecial computes an ad-hoc run labeled by its run code
// POST /api/v1/runs/special
func (h *PayrollHandler) RunSpecial(c *gin.Context) {
	var req apppayroll.RunInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.RunSpecial(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Finalize performs the year-end annualization for one employee
// POST /api/v1/annualization/finalize
func (h *PayrollHandler) Finalize(c *gin.Context) {
	var req apppayroll.AnnualInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.service.Finalize(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// projectionRequest wraps the annual input with the projection date.
type projectionRequest struct {
	apppayroll.AnnualInput
	AsOf string `json:"as_of" binding:"required,dateonly"`
}

// Project estimates the year-end tax position as of a date
// POST /api/v1/annualization/projection
func (h *PayrollHandler) Project(c *gin.Context) {
	var req projectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	projection, err := h.service.Project(c.Request.Context(), req.AnnualInput, req.AsOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, projection)
}

// FinalPay computes the separation settlement
// POST /api/v1/annualization/final-pay
func (h *PayrollHandler) FinalPay(c *gin.Context) {
	var req apppayroll.FinalPayInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	settlement, err := h.service.FinalPay(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlement)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/logger"
	"weddingplan/internal/port"
	"weddingplan/internal/service"
)

// VendorHandler handles vendor CRUD and payment endpoints.
type VendorHandler struct {
	vendorService service.VendorService
	log           *zap.Logger
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(vendorService service.VendorService, log *zap.Logger) *VendorHandler {
	return &VendorHandler{vendorService: vendorService, log: logger.OrNop(log)}
}

// PaymentAmountRequest is the body of a payment amount update.
type PaymentAmountRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

// List handles GET /api/v1/vendors
// @Summary List vendors
// @Tags vendors
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.VendorRecord}
// @Security BearerAuth
// @Router /vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	vendors, err := h.vendorService.ListVendors(c.Request.Context(), weddingID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, vendors)
}

// GetByID handles GET /api/v1/vendors/:id
// @Summary Get a vendor
// @Tags vendors
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} APIResponse{data=domain.VendorRecord}
// @Failure 404 {object} APIResponse "Vendor not found"
// @Security BearerAuth
// @Router /vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	vendorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	vendor, err := h.vendorService.GetVendor(c.Request.Context(), weddingID, vendorID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, vendor)
}

// Create handles POST /api/v1/vendors
// @Summary Create a vendor
// @Tags vendors
// @Accept json
// @Produce json
// @Param body body domain.VendorPatch true "Vendor fields"
// @Success 201 {object} APIResponse{data=domain.VendorRecord}
// @Failure 400 {object} APIResponse "Invalid vendor"
// @Security BearerAuth
// @Router /vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	var patch domain.VendorPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	vendor, err := h.vendorService.CreateVendor(c.Request.Context(), weddingID, patch)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondCreated(c, vendor)
}

// Update handles PUT /api/v1/vendors/:id
// @Summary Update a vendor
// @Description Payments replace the stored schedule unless merge_payments=true.
// @Tags vendors
// @Accept json
// @Produce json
// @Param id path string true "Vendor ID"
// @Param merge_payments query bool false "Merge payments into the stored schedule"
// @Param body body domain.VendorPatch true "Vendor fields"
// @Success 200 {object} APIResponse{data=domain.VendorRecord}
// @Security BearerAuth
// @Router /vendors/{id} [put]
func (h *VendorHandler) Update(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	vendorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	merge, _ := strconv.ParseBool(c.DefaultQuery("merge_payments", "false"))

	var patch domain.VendorPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	vendor, err := h.vendorService.UpdateVendor(c.Request.Context(), weddingID, vendorID, patch, port.UpdateOptions{MergePayments: merge})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, vendor)
}

// Delete handles DELETE /api/v1/vendors/:id
// @Summary Delete a vendor
// @Tags vendors
// @Param id path string true "Vendor ID"
// @Success 200 {object} APIResponse
// @Security BearerAuth
// @Router /vendors/{id} [delete]
func (h *VendorHandler) Delete(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	vendorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.vendorService.DeleteVendor(c.Request.Context(), weddingID, vendorID); err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"message": "vendor deleted"})
}

// UpdatePaymentAmount handles PUT /api/v1/vendors/:id/payments/:payment_id/amount
// @Summary Change one installment's amount
// @Tags vendors
// @Accept json
// @Produce json
// @Param id path string true "Vendor ID"
// @Param payment_id path string true "Payment ID"
// @Param body body PaymentAmountRequest true "New amount in the vendor currency"
// @Success 200 {object} APIResponse{data=domain.VendorRecord}
// @Security BearerAuth
// @Router /vendors/{id}/payments/{payment_id}/amount [put]
func (h *VendorHandler) UpdatePaymentAmount(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	vendorID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req PaymentAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "amount is required")
		return
	}
	vendor, err := h.vendorService.UpdatePaymentAmount(c.Request.Context(), weddingID, vendorID, c.Param("payment_id"), *req.Amount)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, vendor)
}

// Upcoming handles GET /api/v1/payments/upcoming
// @Summary List unpaid installments by due date
// @Tags vendors
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.UpcomingPayment}
// @Security BearerAuth
// @Router /payments/upcoming [get]
func (h *VendorHandler) Upcoming(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	items, err := h.vendorService.UpcomingPayments(c.Request.Context(), weddingID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, items)
}


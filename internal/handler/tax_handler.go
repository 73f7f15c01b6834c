package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"taxflow/internal/authz"
	"taxflow/internal/middleware"
	"taxflow/internal/service"
	"taxflow/internal/tax"
	"taxflow/pkg/pagination"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TaxHandler struct {
	taxService service.TaxService
	guard      *middleware.Guard
}

func NewTaxHandler(taxService service.TaxService, guard *middleware.Guard) *TaxHandler {
	return &TaxHandler{taxService: taxService, guard: guard}
}

// CalculateRequest is the body of every calculate endpoint. PPh 21 also
// accepts annual_income in place of amount.
type CalculateRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	AnnualIncome   *decimal.Decimal `json:"annual_income"`
	IncludeTax     bool             `json:"include_tax"`
	HasNPWP        *bool            `json:"has_npwp"`
	TaxpayerStatus string           `json:"taxpayer_status"`
	ServiceType    string           `json:"service_type"`
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/currency-tax/tax")
	group.Use(h.guard.Authenticate())
	{
		group.POST("/:kind/calculate", h.guard.Authorize(authz.ObjectTax, authz.ActionCalculate), h.Calculate)
		group.POST("/transactions", h.guard.Authorize(authz.ObjectTaxLedger, authz.ActionWrite), h.RecordTransaction)
		group.GET("/transactions", h.guard.Authorize(authz.ObjectTaxLedger, authz.ActionRead), h.ListTransactions)
		group.GET("/transactions/export", h.guard.Authorize(authz.ObjectTaxLedger, authz.ActionExport), h.ExportTransactions)
	}
}

// Calculate runs one tax calculation
// @Summary      Calculate tax
// @Description  kind is one of ppn, pph21, pph23, pph42
// @Tags         tax
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind     path      string                    true  "Tax kind"
// @Param        payload  body      handler.CalculateRequest  true  "Amount and flags"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /currency-tax/tax/{kind}/calculate [post]
func (h *TaxHandler) Calculate(c *gin.Context) {
	kind, err := tax.ParseKind(c.Param("kind"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	amount := req.Amount
	if amount == nil && kind == tax.KindPPh21 {
		amount = req.AnnualIncome
	}
	if amount == nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "amount is required"))
		return
	}

	result, err := h.taxService.Calculate(kind, service.TaxInput{
		Amount:      *amount,
		IncludeTax:  req.IncludeTax,
		HasNPWP:     req.HasNPWP,
		Status:      req.TaxpayerStatus,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *TaxHandler) RecordTransaction(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.RecordTaxTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.taxService.RecordTransaction(c.Request.Context(), p, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}

func (h *TaxHandler) ListTransactions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var query service.TaxTransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	params := pagination.Parse(c)

	rows, total, err := h.taxService.ListTransactions(c.Request.Context(), p, query, params.Page, params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, rows, total, params.Page, params.Limit))
}

// ExportTransactions downloads the filtered ledger as an XLSX workbook
// @Summary      Export tax ledger
// @Tags         tax
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        tax_type       query  string  false  "ppn, pph21, pph23 or pph42"
// @Param        document_type  query  string  false  "SO, PO, INVOICE or PAYROLL"
// @Param        from           query  string  false  "YYYY-MM-DD"
// @Param        to             query  string  false  "YYYY-MM-DD"
// @Success      200
// @Router       /currency-tax/tax/transactions/export [get]
func (h *TaxHandler) ExportTransactions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var query service.TaxTransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := h.taxService.ExportTransactions(c.Request.Context(), p, query, &buf); err != nil {
		abortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("tax-ledger-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

package handlers

import (
	"net/http"

	"govhub/internal/services"
	"govhub/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct{}

func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// List GET /api/reports?consensusStatus=&workGroupId=&year=&quarter=
func (h *ReportHandler) List(c *gin.Context) {
	filter := services.ReportFilter{
		ConsensusStatus: c.Query("consensusStatus"),
		WorkGroupID:     c.Query("workGroupId"),
		Year:            utils.StringToInt(c.Query("year")),
		Quarter:         c.Query("quarter"),
	}
	reports, err := services.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// ListByWorkGroup GET /api/workgroups/:id/quarterly-reports
func (h *ReportHandler) ListByWorkGroup(c *gin.Context) {
	reports, err := services.ListWorkGroupReports(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Create POST /api/workgroups/:id/quarterly-reports
func (h *ReportHandler) Create(c *gin.Context) {
	var req services.ReportInput
	if !bindJSON(c, &req) {
		return
	}
	report, err := services.CreateReport(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusCreated, report)
}

// Get GET /api/quarterly-reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	detail, err := services.GetReportDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update PUT /api/quarterly-reports/:id
func (h *ReportHandler) Update(c *gin.Context) {
	var req services.UpdateReportInput
	if !bindJSON(c, &req) {
		return
	}
	detail, err := services.UpdateReport(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

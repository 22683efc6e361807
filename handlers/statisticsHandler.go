package handlers

import (
	"MedOffice/middlewares"
	"MedOffice/models"
	"MedOffice/services"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatisticsOperations interface {
	DailyRevenue(ctx context.Context, date time.Time) (services.Totals, error)
	MonthlyRevenue(ctx context.Context, year int, month time.Month) (services.Totals, error)
	PendingTotals(ctx context.Context) (services.Totals, error)
	OverdueTotals(ctx context.Context) (services.Totals, error)
	ByMethod(ctx context.Context) (map[models.PaymentMethod]services.Totals, error)
	ByTreatmentType(ctx context.Context) (map[models.TreatmentType]services.Totals, error)
}

type StatisticsHandler struct {
	service StatisticsOperations
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

func NewStatisticsHandler(service StatisticsOperations, loc *time.Location, log *zap.Logger) *StatisticsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatisticsHandler{service: service, loc: loc, log: log, now: time.Now}
}

func (h *StatisticsHandler) Daily(c *gin.Context) {
	date := h.now().In(h.loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			middlewares.HttpError(c, h.log, "invalid date", invalid("date must be YYYY-MM-DD", err))
			return
		}
		date = parsed
	}
	totals, err := h.service.DailyRevenue(c.Request.Context(), date)
	h.respond(c, gin.H{"date": date.Format(dateLayout), "totals": totals}, err)
}

func (h *StatisticsHandler) Monthly(c *gin.Context) {
	month := h.now().In(h.loc)
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, h.loc)
		if err != nil {
			middlewares.HttpError(c, h.log, "invalid month", invalid("month must be YYYY-MM", err))
			return
		}
		month = parsed
	}
	totals, err := h.service.MonthlyRevenue(c.Request.Context(), month.Year(), month.Month())
	h.respond(c, gin.H{"month": month.Format("2006-01"), "totals": totals}, err)
}

func (h *StatisticsHandler) Pending(c *gin.Context) {
	totals, err := h.service.PendingTotals(c.Request.Context())
	h.respond(c, totals, err)
}

func (h *StatisticsHandler) Overdue(c *gin.Context) {
	totals, err := h.service.OverdueTotals(c.Request.Context())
	h.respond(c, totals, err)
}

func (h *StatisticsHandler) ByMethod(c *gin.Context) {
	totals, err := h.service.ByMethod(c.Request.Context())
	h.respond(c, totals, err)
}

func (h *StatisticsHandler) ByTreatmentType(c *gin.Context) {
	totals, err := h.service.ByTreatmentType(c.Request.Context())
	h.respond(c, totals, err)
}

func (h *StatisticsHandler) respond(c *gin.Context, body interface{}, err error) {
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to compute statistics", err)
		return
	}
	middlewares.RespondJSON(c, body, http.StatusOK)
}

package handlers

import (
	"MedOffice/middlewares"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PaymentsReportWriter interface {
	Write(ctx context.Context, w io.Writer, from, to time.Time) error
}

type ReportHandler struct {
	reports PaymentsReportWriter
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

func NewReportHandler(reports PaymentsReportWriter, loc *time.Location, log *zap.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{reports: reports, loc: loc, log: log, now: time.Now}
}

// PaymentsXLSX exports payments settled from `from` through `to`, both inclusive.
// The window defaults to the current month.
func (h *ReportHandler) PaymentsXLSX(c *gin.Context) {
	now := h.now().In(h.loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
	to := from.AddDate(0, 1, 0)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			middlewares.HttpError(c, h.log, "invalid from", invalid("from must be YYYY-MM-DD", err))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			middlewares.HttpError(c, h.log, "invalid to", invalid("to must be YYYY-MM-DD", err))
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		middlewares.HttpError(c, h.log, "invalid window", invalid("to must not be before from", nil))
		return
	}

	var buf bytes.Buffer
	if err := h.reports.Write(c.Request.Context(), &buf, from, to); err != nil {
		middlewares.HttpError(c, h.log, "failed to build payments report", err)
		return
	}

	filename := fmt.Sprintf("payments_%s_%s.xlsx", from.Format(dateLayout), to.AddDate(0, 0, -1).Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

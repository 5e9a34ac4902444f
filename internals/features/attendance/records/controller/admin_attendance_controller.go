package controller

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"smartattendance_backend/internals/features/attendance/records/dto"
	"smartattendance_backend/internals/features/attendance/records/service"
	helper "smartattendance_backend/internals/helpers"
)

// AdminAttendanceController serves the organisation-scoped views: record
// listing, reports, exports, corrections and soft delete.
type AdminAttendanceController struct {
	Service  *service.AttendanceService
	validate *validator.Validate
}

func NewAdminAttendanceController(svc *service.AttendanceService) *AdminAttendanceController {
	return &AdminAttendanceController{Service: svc, validate: validator.New()}
}

// GET /api/admin/attendance
func (ac *AdminAttendanceController) Records(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	start, end, userID := reportQuery(c)

	recs, err := ac.Service.ByOrganisation(c.UserContext(), orgID, start, end, userID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Organisation attendance", dto.ToAttendanceResponseList(recs))
}

// GET /api/admin/attendance/report
func (ac *AdminAttendanceController) Report(c *fiber.Ctx) error {
	report, err := ac.buildOrganisationReport(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Organisation report", report)
}

// GET /api/admin/attendance/report/export?format=csv|pdf
func (ac *AdminAttendanceController) ReportExport(c *fiber.Ctx) error {
	report, err := ac.buildOrganisationReport(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	payload, err := service.ExportOrganisationReport(*report, c.Query("format", "csv"))
	if err != nil {
		return helper.FromError(c, err)
	}
	return sendExport(c, payload)
}

// PUT /api/admin/attendance/:id/checkout
func (ac *AdminAttendanceController) UpdateCheckOut(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid record id")
	}

	var req dto.UpdateCheckOutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ac.Service.UpdateCheckOut(c.UserContext(), id, orgID, req.CheckOutTime)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Check-out updated", dto.ToAttendanceResponse(rec))
}

// DELETE /api/admin/attendance/:id (soft delete)
func (ac *AdminAttendanceController) Delete(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid record id")
	}

	if err := ac.Service.SoftDelete(c.UserContext(), id, orgID); err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Attendance record deleted", nil)
}

func (ac *AdminAttendanceController) buildOrganisationReport(c *fiber.Ctx) (*dto.OrganisationReport, error) {
	_, orgID, err := callerContext(c)
	if err != nil {
		return nil, err
	}
	start, end, userID := reportQuery(c)

	recs, err := ac.Service.ByOrganisation(c.UserContext(), orgID, start, end, userID)
	if err != nil {
		return nil, err
	}

	filters := dto.ReportFilters{
		OrganisationID: orgID,
		StartDate:      start.Format("2006-01-02"),
		EndDate:        end.Format("2006-01-02"),
		UserID:         userID,
		ReportType:     service.NormalizeReportType(c.Query("report_type")),
	}
	report := service.BuildOrganisationReport(recs, filters, ac.Service.LateThresholdFor(c.UserContext(), &orgID))
	return &report, nil
}

// reportQuery resolves the date range (defaults: start of month .. today,
// swapped if reversed) and the optional user filter.
func reportQuery(c *fiber.Ctx) (time.Time, time.Time, *uint64) {
	now := time.Now()
	start := parseDateOr(c.Query("start_date"), time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
	end := parseDateOr(c.Query("end_date"), now)
	if end.Before(start) {
		start, end = end, start
	}

	var userID *uint64
	if raw := c.Query("user_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = &id
		}
	}
	return start, end, userID
}

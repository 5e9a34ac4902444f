package controller

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"smartattendance_backend/internals/features/attendance/records/dto"
	"smartattendance_backend/internals/features/attendance/records/service"
	helper "smartattendance_backend/internals/helpers"
)

type AttendanceController struct {
	Service  *service.AttendanceService
	Users    service.UserStore
	validate *validator.Validate
}

func NewAttendanceController(svc *service.AttendanceService, users service.UserStore) *AttendanceController {
	return &AttendanceController{Service: svc, Users: users, validate: validator.New()}
}

// POST /api/attendance/qr/check-in
func (ac *AttendanceController) QrCheckIn(c *fiber.Ctx) error {
	userID, _, err := callerContext(c)
	if err != nil {
		return err
	}
	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ac.Service.CheckInWithQr(c.UserContext(), userID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Checked in", dto.ToAttendanceResponse(rec))
}

// POST /api/attendance/qr/check-out
func (ac *AttendanceController) QrCheckOut(c *fiber.Ctx) error {
	userID, _, err := callerContext(c)
	if err != nil {
		return err
	}
	var req dto.CheckOutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ac.Service.CheckOutWithQr(c.UserContext(), userID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Checked out", dto.ToAttendanceResponse(rec))
}

// POST /api/attendance/check-in (manual, no token, no geofence)
func (ac *AttendanceController) CheckIn(c *fiber.Ctx) error {
	userID, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ac.Service.CheckIn(c.UserContext(), userID, orgID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Checked in", dto.ToAttendanceResponse(rec))
}

// POST /api/attendance/check-out
func (ac *AttendanceController) CheckOut(c *fiber.Ctx) error {
	userID, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	var req dto.CheckOutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ac.Service.CheckOut(c.UserContext(), userID, orgID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Checked out", dto.ToAttendanceResponse(rec))
}

// GET /api/attendance/today
func (ac *AttendanceController) Today(c *fiber.Ctx) error {
	userID, _, err := callerContext(c)
	if err != nil {
		return err
	}
	rec, err := ac.Service.TodayAttendance(c.UserContext(), userID)
	if err != nil {
		return helper.FromError(c, err)
	}
	if rec == nil {
		return helper.Success(c, "No attendance today", nil)
	}
	return helper.Success(c, "Today's attendance", dto.ToAttendanceResponse(rec))
}

// GET /api/attendance/recent
func (ac *AttendanceController) Recent(c *fiber.Ctx) error {
	userID, _, err := callerContext(c)
	if err != nil {
		return err
	}
	recs, err := ac.Service.Recent(c.UserContext(), userID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Recent attendance", dto.ToAttendanceResponseList(recs))
}

// GET /api/attendance/history?start_date&end_date&method&page&per_page
func (ac *AttendanceController) History(c *fiber.Ctx) error {
	userID, _, err := callerContext(c)
	if err != nil {
		return err
	}

	now := time.Now()
	start := parseDateOr(c.Query("start_date"), now.AddDate(0, 0, -42))
	end := parseDateOr(c.Query("end_date"), now)
	var method *string
	if m := c.Query("method"); m != "" {
		method = &m
	}
	params := helper.ParseFiber(c, "desc", helper.DefaultOpts)

	recs, total, err := ac.Service.History(c.UserContext(), userID, start, end, method, params.Limit(), params.Offset())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Attendance history", fiber.Map{
		"records": dto.ToAttendanceResponseList(recs),
		"meta":    helper.BuildMeta(total, params),
	})
}

// GET /api/attendance/report?period=week|month|quarter|year
func (ac *AttendanceController) Report(c *fiber.Ctx) error {
	report, _, err := ac.buildUserReport(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Attendance report", report)
}

// GET /api/attendance/report/export?period=...&format=csv|pdf
func (ac *AttendanceController) ReportExport(c *fiber.Ctx) error {
	report, user, err := ac.buildUserReport(c)
	if err != nil {
		return helper.FromError(c, err)
	}

	payload, err := service.ExportUserReport(*report, user.FullName, user.Email,
		periodOf(c), c.Query("format", "csv"))
	if err != nil {
		return helper.FromError(c, err)
	}
	return sendExport(c, payload)
}

func (ac *AttendanceController) buildUserReport(c *fiber.Ctx) (*dto.AttendanceReport, *userView, error) {
	userID, _, err := callerContext(c)
	if err != nil {
		return nil, nil, err
	}
	user, err := ac.Users.FindByID(c.UserContext(), userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, helper.NotFoundErr("User not found")
	}

	start, end := service.PeriodRange(periodOf(c), time.Now())
	recs, err := ac.Service.Records.ByUserBetween(c.UserContext(), userID, start, end)
	if err != nil {
		return nil, nil, err
	}

	totalDays := int(end.Sub(start).Hours()/24) + 1
	threshold := ac.Service.LateThresholdFor(c.UserContext(), user.OrganisationID)
	report := service.BuildUserReport(recs, totalDays, threshold)
	return &report, &userView{FullName: user.FullName, Email: user.Email}, nil
}

type userView struct {
	FullName string
	Email    string
}

func periodOf(c *fiber.Ctx) string {
	switch p := c.Query("period", "week"); p {
	case "week", "month", "quarter", "year":
		return p
	default:
		return "week"
	}
}

func parseDateOr(raw string, def time.Time) time.Time {
	if raw == "" {
		return def
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return def
	}
	return t
}

func sendExport(c *fiber.Ctx, payload *service.ReportExportPayload) error {
	c.Set(fiber.HeaderContentType, payload.MediaType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+payload.FileName+`"`)
	return c.Send(payload.Content)
}

func callerContext(c *fiber.Ctx) (userID uint64, orgID uint64, err error) {
	userID, ok := c.Locals("user_id").(uint64)
	if !ok {
		return 0, 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user context")
	}
	orgID, ok = c.Locals("organisation_id").(uint64)
	if !ok {
		return 0, 0, fiber.NewError(fiber.StatusUnauthorized, "No organisation context")
	}
	return userID, orgID, nil
}

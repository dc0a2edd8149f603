// File: services/booking/coordinator.go
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agendia/models"
	"agendia/services/resilience"
	"agendia/services/schedule"
	"agendia/services/upstream"
	"agendia/utils"

	"go.uber.org/zap"
)

// Reason codes for rejections that happen before the calendar write.
const (
	ErrKindInvalidInput = "invalid_input"
	ErrKindSlotRejected = "slot_rejected"
)

// SlotValidator is the slice of the schedule validator the coordinator needs.
type SlotValidator interface {
	Validate(ctx context.Context, tenant models.TenantContext, dateStr, timeStr string) models.ValidationResult
}

// DefaultCoordinator validates a booking request and issues the single,
// never-retried calendar write. Duplicate real-world events are worse than a
// failed turn, so any write failure is surfaced with a reason code and left
// for the user to retry.
type DefaultCoordinator struct {
	Validator SlotValidator
	API       upstream.API
	Location  *time.Location

	// Now is the clock source; tests pin it. Nil means time.Now.
	Now func() time.Time
}

func (c *DefaultCoordinator) now() time.Time {
	if c.Now != nil {
		return c.Now().In(c.Location)
	}
	return time.Now().In(c.Location)
}

// Create runs input validation, schedule validation and then exactly one
// CREAR_EVENTO write.
func (c *DefaultCoordinator) Create(ctx context.Context, req models.BookingRequest) models.BookingResult {
	logger := utils.GetLogger()

	if reason, ok := c.validateInput(&req); !ok {
		return models.BookingResult{Success: false, Message: reason, ErrorKind: ErrKindInvalidInput}
	}

	validation := c.Validator.Validate(ctx, req.Tenant, req.Date, req.Time)
	if !validation.Valid {
		return models.BookingResult{Success: false, Message: validation.Reason, ErrorKind: ErrKindSlotRejected}
	}

	start, end, err := c.eventWindow(req)
	if err != nil {
		logger.Warn("Booking: invalid date/time after validation", zap.Error(err))
		return models.BookingResult{
			Success:   false,
			Message:   "Formato de fecha u hora inválido",
			ErrorKind: resilience.ErrKindInvalidDatetime,
		}
	}

	prospectID := req.Tenant.ProspectID
	if prospectID <= 0 {
		prospectID = req.Tenant.SessionID
	}

	input := upstream.CreateEventInput{
		TenantID:      req.Tenant.TenantID,
		AssigneeID:    req.Tenant.AssigneeUserID,
		ProspectID:    prospectID,
		Title:         fmt.Sprintf("Reunion para el usuario: %s", req.CustomerName),
		Start:         start,
		End:           end,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		AssigneeEmail: strings.TrimSpace(req.Tenant.AssigneeEmail),
		BookAssignee:  boolFlag(req.Tenant.BookForAssignee),
	}

	logger.Debug("Booking: creating calendar event",
		zap.Int("tenantID", req.Tenant.TenantID),
		zap.String("date", req.Date), zap.String("time", req.Time))

	reply, callErr := c.API.CreateEvent(ctx, input)
	if callErr != nil {
		return writeFailure(callErr)
	}

	if !reply.Success {
		message := reply.Message
		if message == "" {
			message = reply.ErrorMessage
		}
		if message == "" {
			message = "Error desconocido"
		}
		logger.Warn("Booking: event creation rejected",
			zap.Int("tenantID", req.Tenant.TenantID), zap.String("message", message))
		return models.BookingResult{Success: false, Message: message, ErrorKind: resilience.ErrKindAPI}
	}

	message := reply.Message
	if message == "" {
		message = "Evento creado correctamente"
	}
	logger.Info("Booking: event created",
		zap.Int("tenantID", req.Tenant.TenantID), zap.Bool("calendarSynced", reply.CalendarSynced))

	return models.BookingResult{
		Success:        true,
		Message:        message,
		MeetingLink:    reply.MeetLink,
		CalendarSynced: reply.CalendarSynced,
	}
}

// validateInput checks field shapes before any network activity. The
// normalized email is written back into the request.
func (c *DefaultCoordinator) validateInput(req *models.BookingRequest) (string, bool) {
	name, err := checkName(req.CustomerName)
	if err != nil {
		return err.Error(), false
	}
	req.CustomerName = name

	email, err := checkEmail(req.CustomerEmail)
	if err != nil {
		return err.Error(), false
	}
	req.CustomerEmail = email

	if err := checkDate(req.Date, c.Location, c.now()); err != nil {
		return err.Error(), false
	}
	if err := checkTime(req.Time); err != nil {
		return err.Error(), false
	}
	return "", true
}

func (c *DefaultCoordinator) eventWindow(req models.BookingRequest) (time.Time, time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), c.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", req.Date, err)
	}
	clock, ok := schedule.ParseClock(req.Time)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("parse time %q", req.Time)
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, c.Location)
	end := start.Add(time.Duration(req.Tenant.DurationMinutes) * time.Minute)
	return start, end, nil
}

// writeFailure maps a tagged gateway failure to a user-facing result with a
// distinguishing reason code for observability. The write is never retried.
func writeFailure(callErr *resilience.CallError) models.BookingResult {
	logger := utils.GetLogger()
	logger.Error("Booking: event creation failed",
		zap.String("kind", callErr.Kind), zap.Error(callErr.Err))

	switch {
	case callErr.Kind == resilience.ErrKindTimeout:
		return models.BookingResult{Success: false, Message: "La conexión tardó demasiado tiempo", ErrorKind: callErr.Kind}
	case callErr.Kind == resilience.ErrKindConnection:
		return models.BookingResult{Success: false, Message: "Error al conectar con el servidor", ErrorKind: callErr.Kind}
	case callErr.Status >= 400:
		return models.BookingResult{
			Success:   false,
			Message:   fmt.Sprintf("Error del servidor (%d)", callErr.Status),
			ErrorKind: callErr.Kind,
		}
	default:
		return models.BookingResult{Success: false, Message: "Error inesperado al crear el evento", ErrorKind: resilience.ErrKindUnknown}
	}
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

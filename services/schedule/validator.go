// File: services/schedule/validator.go
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agendia/models"
	"agendia/services/resilience"
	"agendia/services/upstream"
	"agendia/utils"

	"go.uber.org/zap"
)

// Spanish weekday names, Monday first.
var dayNames = []string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"}

// DefaultValidator decides whether a requested slot is legal for a tenant's
// weekly schedule, blackout rules and live calendar. Lookup failures fail
// open: the system must not block bookings solely because a read degraded.
type DefaultValidator struct {
	API      upstream.API
	Cache    *resilience.Cache[models.WeeklySchedule]
	Location *time.Location

	// Now is the clock source; tests pin it. Nil means time.Now.
	Now func() time.Time
}

func (v *DefaultValidator) now() time.Time {
	if v.Now != nil {
		return v.Now().In(v.Location)
	}
	return time.Now().In(v.Location)
}

// FetchSchedule returns the tenant's weekly schedule through the
// single-flight cache, so concurrent turns for one tenant trigger at most
// one upstream fetch.
func (v *DefaultValidator) FetchSchedule(ctx context.Context, tenantID int) (models.WeeklySchedule, error) {
	return v.Cache.GetOrFetch(ctx, strconv.Itoa(tenantID), func(ctx context.Context) (models.WeeklySchedule, error) {
		return v.API.FetchSchedule(ctx, tenantID)
	})
}

// Validate checks a requested (date, time) against the tenant's schedule.
// Rules run in order and short-circuit on the first failure; every reason is
// user-facing and names the offending day and window where relevant.
func (v *DefaultValidator) Validate(ctx context.Context, tenant models.TenantContext, dateStr, timeStr string) models.ValidationResult {
	logger := utils.GetLogger()

	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(dateStr), v.Location)
	if err != nil {
		return models.ValidationResult{Valid: false, Reason: "Formato de fecha inválido. Usa el formato YYYY-MM-DD (ejemplo: 2026-01-25)."}
	}

	clock, ok := ParseClock(timeStr)
	if !ok {
		return models.ValidationResult{Valid: false, Reason: "Formato de hora inválido. Usa el formato HH:MM AM/PM (ejemplo: 10:30 AM)."}
	}

	startsAt := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, v.Location)
	if !startsAt.After(v.now()) {
		return models.ValidationResult{Valid: false, Reason: "La fecha y hora seleccionada ya pasó. Por favor elige una fecha y hora futura."}
	}

	weekly, err := v.FetchSchedule(ctx, tenant.TenantID)
	if err != nil {
		logger.Warn("Validator: schedule unavailable, allowing booking",
			zap.Int("tenantID", tenant.TenantID), zap.Error(err))
		return models.ValidationResult{Valid: true}
	}

	dayIdx := mondayIndexed(date.Weekday())
	dayName := dayNames[dayIdx]
	entry := strings.TrimSpace(weekly.ByWeekday(dayIdx))

	if entry == "" {
		return models.ValidationResult{Valid: false, Reason: fmt.Sprintf("No hay horario disponible para el día %s. Por favor elige otro día.", dayName)}
	}
	if IsClosedMarker(entry) {
		return models.ValidationResult{Valid: false, Reason: fmt.Sprintf("No hay atención el día %s. Por favor elige otro día.", dayName)}
	}

	open, close, ok := ParseRange(entry)
	if !ok {
		logger.Warn("Validator: unparseable day range, allowing booking",
			zap.Int("tenantID", tenant.TenantID), zap.String("entry", entry))
		return models.ValidationResult{Valid: true}
	}

	window := fmt.Sprintf("%s a %s", open.Format("03:04 PM"), close.Format("03:04 PM"))

	if minutesOfDay(clock) < minutesOfDay(open) {
		return models.ValidationResult{Valid: false, Reason: fmt.Sprintf("La hora seleccionada es antes del horario de atención. El horario del %s es de %s.", dayName, window)}
	}
	if minutesOfDay(clock) >= minutesOfDay(close) {
		return models.ValidationResult{Valid: false, Reason: fmt.Sprintf("La hora seleccionada es después del horario de atención. El horario del %s es de %s.", dayName, window)}
	}

	endsAt := startsAt.Add(time.Duration(tenant.DurationMinutes) * time.Minute)
	closesAt := time.Date(date.Year(), date.Month(), date.Day(), close.Hour(), close.Minute(), 0, 0, v.Location)
	if endsAt.After(closesAt) {
		return models.ValidationResult{
			Valid: false,
			Reason: fmt.Sprintf(
				"La cita de %d minutos excedería el horario de atención (cierre: %s). El horario del %s es de %s. Por favor elige una hora más temprana.",
				tenant.DurationMinutes, close.Format("03:04 PM"), dayName, window),
		}
	}

	if isTimeBlocked(date, clock, weekly.BlockedTimes) {
		return models.ValidationResult{Valid: false, Reason: "El horario seleccionado está bloqueado. Por favor elige otra hora."}
	}

	availability := v.CheckAvailability(ctx, tenant, dateStr, timeStr)
	if !availability.Available {
		return models.ValidationResult{Valid: false, Reason: availability.Reason}
	}

	return models.ValidationResult{Valid: true}
}

// CheckAvailability queries the live booking calendar for the requested
// window. Any upstream failure degrades gracefully to "available" rather
// than blocking the user on a transient outage.
func (v *DefaultValidator) CheckAvailability(ctx context.Context, tenant models.TenantContext, dateStr, timeStr string) models.AvailabilityResult {
	logger := utils.GetLogger()

	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(dateStr), v.Location)
	if err != nil {
		return models.AvailabilityResult{Available: true}
	}
	clock, ok := ParseClock(timeStr)
	if !ok {
		return models.AvailabilityResult{Available: true}
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, v.Location)
	end := start.Add(time.Duration(tenant.DurationMinutes) * time.Minute)

	reply, err := v.API.CheckAvailability(ctx, tenant, start, end)
	if err != nil {
		logger.Warn("Validator: availability lookup failed, treating slot as free",
			zap.Int("tenantID", tenant.TenantID), zap.Error(err))
		return models.AvailabilityResult{Available: true}
	}
	if !reply.Success {
		logger.Warn("Validator: availability reply without success, treating slot as free",
			zap.Int("tenantID", tenant.TenantID))
		return models.AvailabilityResult{Available: true}
	}
	if reply.Available {
		return models.AvailabilityResult{Available: true}
	}
	return models.AvailabilityResult{
		Available: false,
		Reason:    "El horario seleccionado ya está ocupado. Por favor elige otra hora o fecha.",
	}
}

// mondayIndexed converts Go's Sunday-first weekday to Monday = 0.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}

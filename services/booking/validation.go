// File: services/booking/validation.go
package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"agendia/services/schedule"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	digitPattern = regexp.MustCompile(`\d`)
	namePattern  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s\-']+$`)
)

// checkEmail validates the customer contact. Bookings accept email only.
func checkEmail(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("El email no puede estar vacío.")
	}
	if len(v) > 254 {
		return "", fmt.Errorf("El email es demasiado largo.")
	}
	if !emailPattern.MatchString(v) {
		return "", fmt.Errorf("El contacto debe ser un email válido (ejemplo: nombre@dominio.com). Recibido: %s", v)
	}
	return strings.ToLower(v), nil
}

func checkName(v string) (string, error) {
	v = strings.TrimSpace(v)
	if len([]rune(v)) < 2 {
		return "", fmt.Errorf("El nombre debe tener al menos 2 caracteres")
	}
	if digitPattern.MatchString(v) {
		return "", fmt.Errorf("El nombre no debe contener números")
	}
	if !namePattern.MatchString(v) {
		return "", fmt.Errorf("El nombre contiene caracteres no válidos")
	}
	return v, nil
}

func checkDate(v string, loc *time.Location, now time.Time) error {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(v), loc)
	if err != nil {
		return fmt.Errorf("Formato de fecha inválido. Debe ser YYYY-MM-DD (ejemplo: 2026-01-27)")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if date.Before(today) {
		return fmt.Errorf("La fecha no puede ser en el pasado")
	}
	return nil
}

func checkTime(v string) error {
	if _, ok := schedule.ParseClock(v); !ok {
		return fmt.Errorf("Formato de hora inválido. Debe ser HH:MM AM/PM (ejemplo: 02:30 PM) o HH:MM (ejemplo: 14:30)")
	}
	return nil
}

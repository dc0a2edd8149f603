package agent

import (
	"context"
	"strings"
	"testing"

	"agendia/models"
	"agendia/services/booking"
	"agendia/services/resilience"

	genai "github.com/google/generative-ai-go/genai"
)

func bookingArgs() map[string]any {
	return map[string]any{
		"service":          "demostración",
		"date":             "2026-09-08",
		"time":             "10:00 AM",
		"customer_name":    "Juan Pérez",
		"customer_contact": "juan@ejemplo.com",
	}
}

func TestDispatchCheckAvailabilityFallback(t *testing.T) {
	ts := &Toolset{Recommender: &fakeRecommender{text: ""}, Bookings: &fakeBookings{}}
	text, link := ts.Dispatch(context.Background(), testTenant(), genai.FunctionCall{
		Name: toolCheckAvailability,
		Args: map[string]any{"service": "demo", "date": "2026-09-08"},
	})
	if link != "" {
		t.Fatalf("availability check must not yield a link, got %q", link)
	}
	if text != "Horarios disponibles para demo el 2026-09-08. Consulta directamente para más detalles." {
		t.Fatalf("unexpected fallback %q", text)
	}
}

func TestDispatchCreateBookingSuccessDetails(t *testing.T) {
	book := &fakeBookings{result: models.BookingResult{
		Success:        true,
		Message:        "Evento agregado correctamente",
		MeetingLink:    "https://meet.google.com/x",
		CalendarSynced: true,
	}}
	ts := &Toolset{Recommender: &fakeRecommender{}, Bookings: book}

	text, link := ts.Dispatch(context.Background(), testTenant(), genai.FunctionCall{
		Name: toolCreateBooking, Args: bookingArgs(),
	})
	if link != "https://meet.google.com/x" {
		t.Fatalf("link not returned, got %q", link)
	}
	for _, want := range []string{
		"Evento agregado correctamente",
		"**Detalles:**",
		"• Servicio: demostración",
		"• Fecha: 2026-09-08",
		"• Hora: 10:00 AM",
		"• Nombre: Juan Pérez",
		"La reunión será por videollamada. Enlace: https://meet.google.com/x",
		"¡Te esperamos!",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("reply missing %q:\n%s", want, text)
		}
	}
}

func TestDispatchCreateBookingNoMeetLink(t *testing.T) {
	book := &fakeBookings{result: models.BookingResult{
		Success:        true,
		Message:        "Evento agregado correctamente",
		CalendarSynced: false,
	}}
	ts := &Toolset{Recommender: &fakeRecommender{}, Bookings: book}

	text, link := ts.Dispatch(context.Background(), testTenant(), genai.FunctionCall{
		Name: toolCreateBooking, Args: bookingArgs(),
	})
	if link != "" {
		t.Fatalf("no link expected, got %q", link)
	}
	if !strings.Contains(text, "Tu cita ya está reservada. No se pudo generar el enlace de videollamada") {
		t.Fatalf("missing calendar-unsynced notice:\n%s", text)
	}
}

func TestDispatchCreateBookingFailureTexts(t *testing.T) {
	cases := []struct {
		result models.BookingResult
		want   string
	}{
		{
			models.BookingResult{Success: false, Message: "El nombre no debe contener números", ErrorKind: booking.ErrKindInvalidInput},
			"Datos inválidos: El nombre no debe contener números\n\nPor favor verifica la información.",
		},
		{
			models.BookingResult{Success: false, Message: "No hay atención el día domingo. Por favor elige otro día.", ErrorKind: booking.ErrKindSlotRejected},
			"No hay atención el día domingo. Por favor elige otro día.\n\nPor favor elige otra fecha u hora.",
		},
		{
			models.BookingResult{Success: false, Message: "La conexión tardó demasiado tiempo", ErrorKind: resilience.ErrKindTimeout},
			"La conexión tardó demasiado tiempo\n\nPor favor intenta nuevamente.",
		},
		{
			models.BookingResult{Success: false, ErrorKind: resilience.ErrKindAPI},
			"No se pudo confirmar la cita\n\nPor favor intenta nuevamente.",
		},
	}
	for i, tc := range cases {
		ts := &Toolset{Recommender: &fakeRecommender{}, Bookings: &fakeBookings{result: tc.result}}
		text, link := ts.Dispatch(context.Background(), testTenant(), genai.FunctionCall{
			Name: toolCreateBooking, Args: bookingArgs(),
		})
		if link != "" {
			t.Errorf("case %d: failure must not return a link", i)
		}
		if text != tc.want {
			t.Errorf("case %d: got %q, want %q", i, text, tc.want)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	ts := &Toolset{Recommender: &fakeRecommender{}, Bookings: &fakeBookings{}}
	text, _ := ts.Dispatch(context.Background(), testTenant(), genai.FunctionCall{Name: "search_web"})
	if !strings.Contains(text, "no existe") {
		t.Fatalf("unexpected reply %q", text)
	}
}

func TestDeclarationsExposeBothTools(t *testing.T) {
	ts := &Toolset{}
	tools := ts.Declarations()
	if len(tools) != 1 || len(tools[0].FunctionDeclarations) != 2 {
		t.Fatalf("expected one tool with two declarations, got %+v", tools)
	}
	names := map[string]bool{}
	for _, d := range tools[0].FunctionDeclarations {
		names[d.Name] = true
		if d.Parameters == nil || d.Parameters.Type != genai.TypeObject {
			t.Errorf("%s: missing object parameter schema", d.Name)
		}
	}
	if !names[toolCheckAvailability] || !names[toolCreateBooking] {
		t.Fatalf("missing declarations: %v", names)
	}
}

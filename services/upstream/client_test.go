package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"agendia/models"
	"agendia/services/resilience"
)

func testGateway() *resilience.Gateway {
	return &resilience.Gateway{
		Client:      &http.Client{Timeout: 200 * time.Millisecond},
		Attempts:    3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}

// captureServer records the last request payload and answers with reply.
func captureServer(t *testing.T, reply string, payload *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		*payload = got
		w.Write([]byte(reply))
	}))
}

func TestFetchSchedule(t *testing.T) {
	var payload map[string]any
	srv := captureServer(t, `{"success":true,"horario_reuniones":{"reunion_lunes":"09:00-18:00","reunion_domingo":"CERRADO"}}`, &payload)
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), InformacionURL: srv.URL}
	weekly, err := api.FetchSchedule(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if weekly.Monday != "09:00-18:00" || weekly.Sunday != "CERRADO" {
		t.Fatalf("unexpected schedule %+v", weekly)
	}
	if payload["codOpe"] != "OBTENER_HORARIO_REUNIONES" {
		t.Errorf("unexpected codOpe %v", payload["codOpe"])
	}
	if payload["id_empresa"] != float64(7) {
		t.Errorf("unexpected id_empresa %v", payload["id_empresa"])
	}
}

func TestFetchScheduleRejectsMissingBody(t *testing.T) {
	var payload map[string]any
	srv := captureServer(t, `{"success":false}`, &payload)
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), InformacionURL: srv.URL}
	if _, err := api.FetchSchedule(context.Background(), 7); err == nil {
		t.Fatal("expected error for reply without schedule")
	}
}

func TestFetchBusinessContext(t *testing.T) {
	var payload map[string]any
	srv := captureServer(t, `{"success":true,"contexto_negocio":"Clínica dental en Lima"}`, &payload)
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), InformacionURL: srv.URL}
	got, err := api.FetchBusinessContext(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Clínica dental en Lima" {
		t.Fatalf("unexpected context %q", got)
	}
	if payload["codOpe"] != "OBTENER_CONTEXTO_NEGOCIO" {
		t.Errorf("unexpected codOpe %v", payload["codOpe"])
	}
}

func TestFetchFAQs(t *testing.T) {
	var payload map[string]any
	srv := captureServer(t, `{"success":true,"preguntas_frecuentes":[{"pregunta":"¿Atienden sábados?","respuesta":"Sí, de 10 a 13."}]}`, &payload)
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), FAQsURL: srv.URL}
	faqs, err := api.FetchFAQs(context.Background(), 11)
	if err != nil {
		t.Fatal(err)
	}
	if len(faqs) != 1 || faqs[0].Question != "¿Atienden sábados?" {
		t.Fatalf("unexpected faqs %+v", faqs)
	}
	if payload["id_chatbot"] != float64(11) {
		t.Errorf("unexpected id_chatbot %v", payload["id_chatbot"])
	}
}

func TestCheckAvailabilityPayload(t *testing.T) {
	var payload map[string]any
	srv := captureServer(t, `{"success":true,"disponible":false}`, &payload)
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), AgendarURL: srv.URL}
	tc := models.TenantContext{TenantID: 7, Slots: 60, BookForAssignee: true}
	start := time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC)

	reply, err := api.CheckAvailability(context.Background(), tc, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Available {
		t.Fatal("expected disponible=false to be carried through")
	}
	if payload["codOpe"] != "CONSULTAR_DISPONIBILIDAD" {
		t.Errorf("unexpected codOpe %v", payload["codOpe"])
	}
	if payload["fecha_inicio"] != "2026-09-08 10:00:00" {
		t.Errorf("unexpected fecha_inicio %v", payload["fecha_inicio"])
	}
	if payload["fecha_fin"] != "2026-09-08 11:00:00" {
		t.Errorf("unexpected fecha_fin %v", payload["fecha_fin"])
	}
	if payload["agendar_usuario"] != float64(1) || payload["agendar_sucursal"] != float64(0) {
		t.Errorf("flags not rendered as 1/0: %v / %v", payload["agendar_usuario"], payload["agendar_sucursal"])
	}
}

func TestSuggestSlotsPayload(t *testing.T) {
	var payload map[string]any
	srv := captureServer(t, `{"success":true,"sugerencias":[{"dia":"hoy","hora_legible":"03:00 PM"}],"total":1}`, &payload)
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), AgendarURL: srv.URL}
	tc := models.TenantContext{TenantID: 7, DurationMinutes: 45, Slots: 60}

	reply, err := api.SuggestSlots(context.Background(), tc)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Total != 1 || len(reply.Suggestions) != 1 || reply.Suggestions[0].Day != "hoy" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if payload["codOpe"] != "SUGERIR_HORARIOS" {
		t.Errorf("unexpected codOpe %v", payload["codOpe"])
	}
	if payload["duracion_minutos"] != float64(45) {
		t.Errorf("unexpected duracion_minutos %v", payload["duracion_minutos"])
	}
}

func TestCreateEventPayloadAndSingleAttempt(t *testing.T) {
	var hits int32
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"success":true,"message":"Evento agregado correctamente","google_meet_link":"https://meet.google.com/x","google_calendar_synced":true}`))
	}))
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), CalendarioURL: srv.URL}
	in := CreateEventInput{
		TenantID:      7,
		AssigneeID:    3,
		ProspectID:    99,
		Title:         "Reunion para el usuario: Juan Pérez",
		Start:         time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 9, 8, 11, 0, 0, 0, time.UTC),
		CustomerEmail: "juan@ejemplo.com",
		AssigneeEmail: "vendedor@acme.pe",
		BookAssignee:  1,
	}
	reply, callErr := api.CreateEvent(context.Background(), in)
	if callErr != nil {
		t.Fatal(callErr)
	}
	if !reply.Success || reply.MeetLink != "https://meet.google.com/x" || !reply.CalendarSynced {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if payload["codOpe"] != "CREAR_EVENTO" {
		t.Errorf("unexpected codOpe %v", payload["codOpe"])
	}
	if payload["fecha_inicio"] != "2026-09-08 10:00:00" {
		t.Errorf("unexpected fecha_inicio %v", payload["fecha_inicio"])
	}
	if hits != 1 {
		t.Fatalf("expected exactly one request, got %d", hits)
	}
}

func TestCreateEventTransportFailureIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(400 * time.Millisecond)
	}))
	defer srv.Close()

	api := &DefaultAPI{Gateway: testGateway(), CalendarioURL: srv.URL}
	_, callErr := api.CreateEvent(context.Background(), CreateEventInput{})
	if callErr == nil || callErr.Kind != resilience.ErrKindTimeout {
		t.Fatalf("expected timeout, got %v", callErr)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("the calendar write must never be retried, got %d attempts", got)
	}
}

func TestReadsShareBreakerByEndpointKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // every read fails with connection errors

	breaker := resilience.NewBreaker("upstream", 3, time.Minute)
	g := testGateway()
	g.Breaker = breaker
	api := &DefaultAPI{Gateway: g, InformacionURL: srv.URL, AgendarURL: srv.URL}

	for i := 0; i < 3; i++ {
		_, _ = api.FetchSchedule(context.Background(), 7)
	}
	if !breaker.IsOpen("informacion:7") {
		t.Fatal("informacion circuit for tenant 7 should be open")
	}
	if breaker.IsOpen("informacion:8") {
		t.Fatal("other tenants must be unaffected")
	}
	if breaker.IsOpen("agendar:7") {
		t.Fatal("other endpoints must be unaffected")
	}
}

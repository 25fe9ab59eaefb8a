package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/app"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/routes"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

const secret = "cli-secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             secret,
		CursorBackend:         "memory",
		DefaultTimezone:       "UTC",
		BookRatePerMinute:     600,
		SyncPollInterval:      20 * time.Millisecond,
		SuggestionHorizonDays: 7,
	}
}

func run(t *testing.T, ctx context.Context, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(cfg)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func newServer(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := app.Build(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Service.RegisterProvider.Execute(context.Background(), models.Provider{
		ID: "prov-1", Name: "Dr. Ahn", Specialization: "General Dentist", Timezone: "UTC",
	})
	require.NoError(t, err)

	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{Service: a.Service, Triage: a.Triage, AuditStore: a.AuditStore}, cfg)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	cfg.APIBaseURL = srv.URL
	return a
}

func tokenFor(t *testing.T, id string, role domain.Role) string {
	tok, err := middleware.SignToken(secret, domain.Actor{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func bookingDay() string {
	return time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
}

func TestSlotsPreview(t *testing.T) {
	out, err := run(t, context.Background(), testConfig(),
		"slots", "--start", "09:00", "--end", "17:00", "--slot", "30", "--mode", "continuous", "--date", "2030-01-07")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 17)
	assert.Equal(t, "09:00-09:30", lines[0])
	assert.Equal(t, "16:30-17:00", lines[15])
	assert.Equal(t, "16 slots", lines[16])

	out, err = run(t, context.Background(), testConfig(),
		"slots", "--start", "09:00", "--end", "10:10", "--mode", "continuous", "--date", "2030-01-07")
	require.NoError(t, err)
	assert.Contains(t, out, "2 slots")
	assert.NotContains(t, out, "10:00-10:30")
}

func TestSlotsDefaultsAndValidation(t *testing.T) {
	// defaults: 09:00-17:00, 30 min, 5 min buffer, interleaved
	out, err := run(t, context.Background(), testConfig(), "slots", "--date", "2030-01-07")
	require.NoError(t, err)
	assert.Contains(t, out, "09:35-10:05")

	_, err = run(t, context.Background(), testConfig(), "slots", "--start", "17:00", "--end", "09:00")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation))
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, context.Background(), testConfig(), "token", "--sub", "prov-7", "--role", "provider")
	require.NoError(t, err)

	parsed, err := jwt.Parse(strings.TrimSpace(out), func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "prov-7", claims["sub"])
	assert.Equal(t, "provider", claims["role"])

	_, err = run(t, context.Background(), testConfig(), "token", "--sub", "x", "--role", "system")
	assert.Error(t, err)
}

func TestBookCommand(t *testing.T) {
	cfg := testConfig()
	newServer(t, cfg)
	tok := tokenFor(t, "pat-1", domain.RolePatient)
	day := bookingDay()

	out, err := run(t, context.Background(), cfg, "--token", tok, "book", "--provider", "prov-1", "--date", day)
	require.NoError(t, err)
	assert.Contains(t, out, "bookable: 09:00 09:35")

	out, err = run(t, context.Background(), cfg, "--token", tok, "book",
		"--provider", "prov-1", "--date", day, "--time", "09:35", "--reason", "filling")
	require.NoError(t, err)
	assert.Contains(t, out, "scheduled")
	assert.Contains(t, out, `"filling"`)

	other := tokenFor(t, "pat-2", domain.RolePatient)
	out, err = run(t, context.Background(), cfg, "--token", other, "book",
		"--provider", "prov-1", "--date", day, "--time", "09:35")
	assert.Error(t, err)
	assert.NotContains(t, out, "09:35 ")

	out, err = run(t, context.Background(), cfg, "--token", tok, "-f", "json", "appointment", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, `"reason": "filling"`)
}

func TestTriageCommand(t *testing.T) {
	cfg := testConfig()
	newServer(t, cfg)
	tok := tokenFor(t, "pat-1", domain.RolePatient)

	out, err := run(t, context.Background(), cfg, "--token", tok, "triage", "I need a cleaning", "now there is swelling")
	require.NoError(t, err)
	assert.Contains(t, out, "please contact us immediately")

	out, err = run(t, context.Background(), cfg, "--token", tok, "triage", "--accept", "time for a checkup")
	require.NoError(t, err)
	assert.Contains(t, out, "Dr. Ahn")
	assert.Contains(t, out, "scheduled")
}

func TestWatchStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	a := newServer(t, cfg)
	tok := tokenFor(t, "prov-1", domain.RoleProvider)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan string, 1)

	go func() {
		out, _ := run(t, ctx, cfg, "--token", tok, "watch", "--provider", "prov-1", "--date", bookingDay(), "--interval", "20ms")
		done <- out
	}()

	time.Sleep(60 * time.Millisecond)
	_, err := a.Service.UpdateConfig.Execute(context.Background(), domain.SystemActor(), ucConfig())
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case out := <-done:
		assert.Contains(t, out, "changed cursor=1")
		assert.Contains(t, out, "stopped cursor=1")
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func ucConfig() ucAppointment.ConfigInput {
	return ucAppointment.ConfigInput{ProviderID: "prov-1", WorkStart: "08:00", WorkEnd: "12:00", SlotDuration: 20, Mode: "continuous"}
}

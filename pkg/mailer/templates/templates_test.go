package templates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelgo/travelgo/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:     "travelgo",
		CompanyName: "TravelGo",
		SiteURL:     "https://travelgo.example.com",
		SupportURL:  "https://travelgo.example.com/support",
	}
}

func TestRenderWelcome(t *testing.T) {
	data := NewWelcomeData(testConfig(), "Ada", "ada@example.com")

	subject, text, html, err := Render(Welcome, data)
	require.NoError(t, err)

	assert.Contains(t, subject, "Welcome to TravelGo")
	assert.Contains(t, text, "Ada")
	assert.Contains(t, html, "Ada")
}

func TestRenderPasswordReset(t *testing.T) {
	resetURL := "https://travelgo.example.com/reset-password?token=abc123"
	data := NewPasswordResetData(testConfig(), "Ada", "ada@example.com", resetURL,
		WithTime(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)),
		WithExpiresIn(10*time.Minute),
		WithIP("203.0.113.7"),
	)

	subject, text, html, err := Render(PasswordReset, data)
	require.NoError(t, err)

	assert.Equal(t, "Your password reset token (valid for only 10 minutes)", subject)
	assert.Contains(t, text, resetURL)
	assert.Contains(t, text, "203.0.113.7")
	assert.Contains(t, html, resetURL)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no_such_template", map[string]any{})
	require.Error(t, err)
}

func TestWithGeoFromIP(t *testing.T) {
	t.Run("empty ip is skipped", func(t *testing.T) {
		var d EmailData
		WithGeoFromIP(context.Background(), stubResolver{}, "  ")(&d)
		assert.Empty(t, d.Location)
	})

	t.Run("sets formatted location", func(t *testing.T) {
		var d EmailData
		WithGeoFromIP(context.Background(), stubResolver{}, "203.0.113.7")(&d)
		assert.Equal(t, "Rotterdam, South Holland, Netherlands", d.Location)
	})
}

func TestWithGeoFromIPLocalizesTimes(t *testing.T) {
	amsterdam := geoStub{g: Geo{City: "Amsterdam", Country: "Netherlands", Timezone: "Europe/Amsterdam"}}

	t.Run("reformats display times in the reported zone", func(t *testing.T) {
		var d EmailData
		WithTime(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))(&d)
		WithExpiresIn(10 * time.Minute)(&d)
		WithGeoFromIP(context.Background(), amsterdam, "203.0.113.7")(&d)

		loc, err := time.LoadLocation("Europe/Amsterdam")
		require.NoError(t, err)
		assert.Equal(t, "15 January 2026, 13:00", d.Time)
		assert.Equal(t, d.ExpiresAt.In(loc).Format("02 January 2006, 15:04"), d.ExpiresAtText)
	})

	t.Run("unknown zone keeps the UTC text", func(t *testing.T) {
		var d EmailData
		WithTime(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))(&d)
		WithGeoFromIP(context.Background(), geoStub{g: Geo{City: "Nowhere", Timezone: "Mars/Olympus"}}, "203.0.113.7")(&d)
		assert.Equal(t, "15 January 2026, 12:00", d.Time)
	})
}

type geoStub struct{ g Geo }

func (s geoStub) Lookup(_ context.Context, _ string) (Geo, error) { return s.g, nil }

type stubResolver struct{}

func (stubResolver) Lookup(_ context.Context, _ string) (Geo, error) {
	return Geo{City: "Rotterdam", Region: "South Holland", Country: "Netherlands"}, nil
}

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "Rotterdam, Netherlands", FormatGeo(Geo{City: "Rotterdam", Country: "Netherlands"}))
	assert.Equal(t, "", FormatGeo(Geo{}))
}

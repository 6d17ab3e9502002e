package templates

import (
	"context"
	"strings"
	"time"

	"github.com/travelgo/travelgo/config"
)

// Option pattern
type Option func(*EmailData)

const displayTimeLayout = "02 January 2006, 15:04"

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format(displayTimeLayout)
	}
}

func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }

func setLocation(d *EmailData, loc string) {
	if s := strings.TrimSpace(loc); s != "" {
		d.Location = s
	}
}

func WithLocation(loc string) Option {
	return func(d *EmailData) { setLocation(d, loc) }
}

func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string) Option {
	return func(d *EmailData) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		g, err := r.Lookup(ctx, ip)
		if err != nil {
			return
		}
		setLocation(d, FormatGeo(g))
		localizeTimes(d, g.Timezone)
	}
}

// localizeTimes reformats the display timestamps in the recipient's
// timezone when the geo lookup reported one. Unknown zones leave the
// UTC text untouched.
func localizeTimes(d *EmailData, tz string) {
	if tz == "" {
		return
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return
	}
	if !d.TimeAt.IsZero() {
		d.Time = d.TimeAt.In(loc).Format(displayTimeLayout)
	}
	if !d.ExpiresAt.IsZero() {
		d.ExpiresAtText = d.ExpiresAt.In(loc).Format(displayTimeLayout)
	}
}

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format(displayTimeLayout)
	}
}

// NewBaseEmailData fills the common fields from config, then applies options.
func NewBaseEmailData(cfg *config.Config, firstName, email string, opts ...Option) EmailData {
	d := EmailData{
		FirstName:      firstName,
		Email:          email,
		RecipientEmail: email,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
		SiteURL:    cfg.SiteURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, firstName, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, firstName, email, opts...)
	return ToMap(d)
}

func NewPasswordResetData(cfg *config.Config, firstName, email, resetURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithResetURL(resetURL)}, opts...)
	d := NewBaseEmailData(cfg, firstName, email, opts...)
	return ToMap(d)
}

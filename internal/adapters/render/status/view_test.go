package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waselni/waselni-cli/internal/application"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/metrics"
)

func authenticatedState(user domain.User) application.State {
	return application.State{
		User:            &user,
		HasToken:        true,
		IsAuthenticated: true,
		IsCarrier:       user.Role.IsCarrier(),
		IsCarrierPro:    user.Role.IsCarrierPro(),
		IsShipper:       user.Role.IsShipper(),
		IsAdmin:         user.Role.IsAdmin(),
	}
}

func TestRenderAuthenticatedSession(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(Snapshot{
		Profile: domain.Profile{ID: "default"},
		BaseURL: "http://localhost:8001/api",
		State: authenticatedState(domain.User{
			Email:              "carrier@b.com",
			FirstName:          "Youssef",
			LastName:           "Alaoui",
			Role:               domain.RoleCarrierPro,
			City:               "Tanger",
			Country:            "MA",
			RatingSum:          9,
			RatingCount:        2,
			VerificationStatus: domain.VerificationVerified,
		}),
		TokenExpiresAt: now.Add(42 * time.Minute),
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "profile: default")
	assert.Contains(t, output, "http://localhost:8001/api")
	assert.Contains(t, output, "Youssef Alaoui <carrier@b.com>")
	assert.Contains(t, output, "role: Carrier (pro)")
	assert.Contains(t, output, "location: Tanger, MA")
	assert.Contains(t, output, "verification: VERIFIED")
	assert.Contains(t, output, "4.5/5 (2)")
	assert.Contains(t, output, "+carrier")
	assert.Contains(t, output, "+carrier-pro")
	assert.Contains(t, output, "-admin")
	assert.Contains(t, output, "expires in 42 minutes (11:42)")
	assert.NotContains(t, output, "Session counters")
}

func TestRenderLoggedOutSession(t *testing.T) {
	output, err := Render(Snapshot{Profile: domain.Profile{ID: "staging"}, BaseURL: "https://staging.example/api"}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "profile: staging")
	assert.Contains(t, output, "Not logged in")
	assert.NotContains(t, output, "access token")
}

func TestRenderExpiredTokenAndCounters(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(Snapshot{
		Profile:        domain.Profile{ID: "default"},
		State:          authenticatedState(domain.User{Email: "a@b.com", Role: domain.RoleShipper}),
		TokenExpiresAt: now.Add(-time.Minute),
		Metrics: []metrics.Sample{
			{Name: "waselni_session_refresh_total", Labels: "result=success", Value: 1},
		},
	}, RenderOptions{Now: now, Verbose: true})

	require.NoError(t, err)
	assert.Contains(t, output, "a@b.com <a@b.com>")
	assert.Contains(t, output, "no reviews")
	assert.Contains(t, output, "expired (refreshed on next request)")
	assert.Contains(t, output, "Session counters")
	assert.Contains(t, output, "waselni_session_refresh_total{result=success} 1")
}

func TestRenderTokenWithoutUser(t *testing.T) {
	output, err := Render(Snapshot{State: application.State{HasToken: true}}, RenderOptions{Verbose: true})

	require.NoError(t, err)
	assert.Contains(t, output, "Token stored but no user loaded.")
	assert.Contains(t, output, "expiry unknown")
	assert.Contains(t, output, "none recorded")
}

func TestFormatExpiry(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	assert.Equal(t, "expires in 1 minute (11:00)", formatExpiry(now.Add(10*time.Second), now))
	assert.Equal(t, "expires in 2 hours (13:00 on 14 Feb)", formatExpiry(now.Add(2*time.Hour), now))
	assert.Equal(t, "expires 2026-02-14T12:00:00Z", formatExpiry(now.Add(time.Hour), time.Time{}))
}

func TestRenderRatingBar(t *testing.T) {
	s := newStyles()

	assert.Contains(t, renderRatingBar(5, 10, s), "**********")
	assert.Contains(t, renderRatingBar(0, 10, s), "----------")
	assert.Empty(t, renderRatingBar(3, 0, s))
}

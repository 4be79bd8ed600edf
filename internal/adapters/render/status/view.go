package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/waselni/waselni-cli/internal/application"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/metrics"
)

// Snapshot is everything the session view shows.
type Snapshot struct {
	Profile        domain.Profile
	BaseURL        string
	State          application.State
	TokenExpiresAt time.Time
	Metrics        []metrics.Sample
}

type RenderOptions struct {
	Now     time.Time
	Verbose bool
}

const ratingBarWidth = 10

func renderView(snapshot Snapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Waselni session"),
		s.header.Render(fmt.Sprintf("profile: %s  backend: %s", snapshot.Profile.ID, snapshot.BaseURL)),
	}

	state := snapshot.State
	switch {
	case state.IsAuthenticated:
		lines = append(lines, s.section.Render(renderUser(*state.User, s)))
		lines = append(lines, renderFlags(state, s))
		lines = append(lines, tokenLine(snapshot.TokenExpiresAt, opts.Now, s))
	case state.HasToken:
		lines = append(lines, s.section.Render(s.warning.Render("Token stored but no user loaded.")))
		lines = append(lines, tokenLine(snapshot.TokenExpiresAt, opts.Now, s))
	default:
		lines = append(lines, s.section.Render(s.empty.Render("Not logged in. Run `waselni login`.")))
	}

	if opts.Verbose {
		lines = append(lines, s.section.Render(renderMetrics(snapshot.Metrics, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderUser(user domain.User, s styles) string {
	parts := []string{
		s.user.Render(fmt.Sprintf("%s <%s>", user.DisplayName(), user.Email)),
		s.detail.Render(fmt.Sprintf("role: %s", user.Role.Label())),
	}

	if location := strings.Trim(strings.Join([]string{user.City, user.Country}, ", "), ", "); location != "" {
		parts = append(parts, s.detail.Render("location: "+location))
	}
	if user.VerificationStatus != "" {
		parts = append(parts, verificationLine(user.VerificationStatus, s))
	}

	parts = append(parts, lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("rating:"),
		" ",
		renderRatingBar(user.Rating(), ratingBarWidth, s),
		" ",
		s.detail.Render(user.RatingLabel()),
	))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func verificationLine(status domain.VerificationStatus, s styles) string {
	label := s.key.Render("verification:") + " "
	switch status {
	case domain.VerificationVerified:
		return label + s.ok.Render(string(status))
	case domain.VerificationRejected:
		return label + s.warning.Render(string(status))
	default:
		return label + s.detail.Render(string(status))
	}
}

func renderFlags(state application.State, s styles) string {
	flags := []struct {
		name string
		on   bool
	}{
		{"admin", state.IsAdmin},
		{"shipper", state.IsShipper},
		{"carrier", state.IsCarrier},
		{"carrier-pro", state.IsCarrierPro},
	}

	rendered := make([]string, 0, len(flags))
	for _, flag := range flags {
		if flag.on {
			rendered = append(rendered, s.flagOn.Render("+"+flag.name))
			continue
		}
		rendered = append(rendered, s.flagOff.Render("-"+flag.name))
	}

	return s.key.Render("flags:") + " " + strings.Join(rendered, " ")
}

func tokenLine(expiresAt, now time.Time, s styles) string {
	label := s.key.Render("access token:") + " "
	if expiresAt.IsZero() {
		return label + s.detail.Render("expiry unknown")
	}
	if !now.IsZero() && !expiresAt.After(now) {
		return label + s.warning.Render("expired (refreshed on next request)")
	}

	style := lipgloss.NewStyle().Foreground(expiryColor(expiresAt, now))
	return label + style.Render(formatExpiry(expiresAt, now))
}

func formatExpiry(expiresAt, now time.Time) string {
	if now.IsZero() {
		return "expires " + expiresAt.Format(time.RFC3339)
	}

	remaining := expiresAt.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		suffix := "minutes"
		if minutes == 1 {
			suffix = "minute"
		}
		return fmt.Sprintf("expires in %d %s (%s)", minutes, suffix, expiresAt.Format("15:04"))
	}

	hours := int(math.Ceil(remaining.Hours()))
	suffix := "hours"
	if hours == 1 {
		suffix = "hour"
	}
	return fmt.Sprintf("expires in %d %s (%s)", hours, suffix, expiresAt.Format("15:04 on 02 Jan"))
}

func renderMetrics(samples []metrics.Sample, s styles) string {
	lines := []string{s.title.Render("Session counters")}
	if len(samples) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("none recorded"))...)
	}

	for _, sample := range samples {
		name := sample.Name
		if sample.Labels != "" {
			name += "{" + sample.Labels + "}"
		}
		lines = append(lines, s.detail.Render(fmt.Sprintf("%s %g", name, sample.Value)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRatingBar(rating float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clamp(rating, 0, 5) / 5))
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("*", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := clamp((value-min)/(max-min), 0, 1)

	// ANSI 256 greyscale ramp from 240 (faded) to 255 (bright).
	colorCode := int(240.0 + 15.0*normalized)
	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}

// expiryColor brightens as the access token nears its one hour lifetime end.
func expiryColor(expiresAt, now time.Time) lipgloss.Color {
	if now.IsZero() {
		return lipgloss.Color("255")
	}

	lifetime := time.Hour
	elapsed := lifetime.Seconds() - expiresAt.Sub(now).Seconds()
	return interpolateColor(elapsed, 0, lifetime.Seconds())
}

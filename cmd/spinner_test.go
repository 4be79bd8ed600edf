package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waselni/waselni-cli/internal/domain"
)

func TestWithSpinnerReturnsOperationResult(t *testing.T) {
	var out bytes.Buffer

	user, err := withSpinner(context.Background(), &out, "Signing in...", func(ctx context.Context) (domain.User, error) {
		return domain.User{ID: "u-1", Email: "amira@example.com"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u-1"), user.ID)
}

func TestWithSpinnerReturnsOperationError(t *testing.T) {
	var out bytes.Buffer

	_, err := withSpinner(context.Background(), &out, "Refreshing access token...", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, domain.ErrAuthorizationInvalid
	})
	require.ErrorIs(t, err, domain.ErrAuthorizationInvalid)
}

func TestWithSpinnerStopsOnCancellation(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	_, err := withSpinner(ctx, &out, "Signing in...", func(ctx context.Context) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOperationModelViewShowsElapsedAndFailure(t *testing.T) {
	started := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	model := newOperationModel("Signing in...", nil, started)

	assert.Contains(t, model.View(), "Signing in...")
	assert.NotContains(t, model.View(), "0s")

	next, _ := model.Update(spinner.TickMsg{Time: started.Add(2500 * time.Millisecond), ID: model.spinner.ID()})
	model = next.(operationModel)
	assert.Contains(t, model.View(), "2s")

	next, _ = model.Update(operationDoneMsg{})
	assert.Empty(t, next.(operationModel).View())

	next, _ = model.Update(operationDoneMsg{err: errors.New("boom")})
	assert.Contains(t, next.(operationModel).View(), "x Signing in...")
}

package adminui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larkvale/docdeck/internal/config"
)

func testApp() *App {
	cfg := config.ClientConfig{
		ServerURL:     "http://localhost:8000",
		CommandPrefix: '/',
	}
	return NewApp(cfg, nil, nil)
}

func TestSessionExpiryDefersReturnToLogin(t *testing.T) {
	a := testApp()
	a.authed = true
	a.username = "root@example.com"
	a.view = viewDash

	a.handleCredentialCleared(credentialClearedMsg{
		reason:   "Session expired; please /login again",
		deferred: true,
	})

	// The notice stays on the current view until the delayed flip fires.
	require.False(t, a.authed)
	require.Equal(t, viewDash, a.view)

	model, _ := a.Update(backToLoginMsg{})
	require.Equal(t, viewLogin, model.(*App).view)
}

func TestLogoutReturnsToLoginImmediately(t *testing.T) {
	a := testApp()
	a.authed = true
	a.view = viewDash

	a.handleCredentialCleared(credentialClearedMsg{reason: "Logged out"})

	require.False(t, a.authed)
	require.Equal(t, viewLogin, a.view)
}

func TestExpireSessionBatchesTeardownAndDelayedFlip(t *testing.T) {
	a := testApp()
	a.authed = true
	a.view = viewDash

	cmd := a.expireSession()
	require.NotNil(t, cmd)
}

package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uaIPhoneSafari   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaIPhoneChrome   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/118.0 Mobile/15E148 Safari/604.1"
	uaAndroid        = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0 Mobile Safari/537.36"
	uaDesktop        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	uaIPadStandalone = "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 Safari/604.1"
)

func TestIsRedirectIncompatible(t *testing.T) {
	assert.True(t, IsRedirectIncompatible(uaIPhoneSafari))
	assert.True(t, IsRedirectIncompatible(uaIPadStandalone))
	assert.False(t, IsRedirectIncompatible(uaIPhoneChrome))
	assert.False(t, IsRedirectIncompatible(uaAndroid))
	assert.False(t, IsRedirectIncompatible(uaDesktop))
	assert.False(t, IsRedirectIncompatible(""))
}

func TestStandardRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	StandardRedirect(rec, "https://app.example/oauth/success?token=a&refreshToken=b")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app.example/oauth/success?token=a&refreshToken=b", rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestHTMLRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	HTMLRedirect(rec, "https://app.example/login?error=oauth_invalid", MsgRedirectFailure)

	require.Equal(t, http.StatusOK, rec.Code)
	h := rec.Header()
	assert.Equal(t, "text/html; charset=utf-8", h.Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", h.Get("Cache-Control"))
	assert.Equal(t, "no-cache", h.Get("Pragma"))
	assert.Equal(t, "0", h.Get("Expires"))

	body := rec.Body.String()
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, "window.location.replace(")
	assert.Contains(t, body, "<a href=")
	assert.Contains(t, body, MsgRedirectFailure)
}

func TestHTMLRedirect_EscapesTarget(t *testing.T) {
	rec := httptest.NewRecorder()
	target := `https://app.example/"><script>alert(1)</script>`
	HTMLRedirect(rec, target, "<b>hi</b>")

	body := rec.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.NotContains(t, body, "<b>hi</b>")
	assert.Equal(t, 1, strings.Count(body, "<script>"))
}

func TestRedirect_ChoosesByUserAgent(t *testing.T) {
	rec := httptest.NewRecorder()
	Redirect(rec, "https://accounts.example/auth", MsgRedirectingTo("Google"), IsRedirectIncompatible(uaIPhoneSafari))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Redirecting to Google...")

	rec = httptest.NewRecorder()
	Redirect(rec, "https://accounts.example/auth", MsgRedirectingTo("Google"), IsRedirectIncompatible(uaDesktop))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example/auth", rec.Header().Get("Location"))
}

func TestWriteJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	WriteJSON(rec, req, http.StatusCreated, map[string]any{"ok": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestReadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"abc"}`))
	rec := httptest.NewRecorder()
	var in struct {
		Code string `json:"code"`
	}
	require.NoError(t, ReadJSON(rec, req, &in))
	assert.Equal(t, "abc", in.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	assert.Error(t, ReadJSON(rec, req, &in))
}

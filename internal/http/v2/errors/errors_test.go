package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrProviderAlreadyLinked.WithDetail("line"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "PROVIDER_ALREADY_LINKED", body["code"])
	assert.Equal(t, "line", body["detail"])
	// la variable base no se muta
	assert.Empty(t, ErrProviderAlreadyLinked.Detail)
}

func TestWriteError_GenericHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, stderrors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestFromError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrTokenExpired)
	assert.Equal(t, "TOKEN_EXPIRED", FromError(wrapped).Code)

	cause := stderrors.New("boom")
	e := ErrServiceUnavailable.WithCause(cause)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "SERVICE_UNAVAILABLE")
}

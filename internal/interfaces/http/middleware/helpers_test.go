package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-key-at-least-32-chars!!"

func newTestJWTService() *auth.JWTService {
	return newTestJWTServiceWithSecret(testSecret)
}

func newTestJWTServiceWithSecret(secret string) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Secret: secret, Issuer: "ledger-test"})
}

func newTestToken(t *testing.T, svc *auth.JWTService, perms ...string) (string, auth.TokenInput) {
	t.Helper()
	input := auth.TokenInput{
		TenantID:    uuid.New(),
		OperatorID:  uuid.New(),
		Username:    "cashier",
		Permissions: perms,
		TTL:         time.Hour,
	}
	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	return token, input
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error, "expected an error body, got %s", rec.Body.String())
	return resp.Error
}

//go:build integration_test || all_tests

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/2beens/portfolio/internal/account"
	"github.com/2beens/portfolio/internal/admin"
	"github.com/2beens/portfolio/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Admin struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"admin"`
		Token string `json:"token"`
	} `json:"data"`
}

func doJSON(ctx context.Context, t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", serverEndpoint, path), &reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var apiResp apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiResp))
	return resp.StatusCode, apiResp
}

func (s *IntegrationTestSuite) passwordHash(ctx context.Context, email string) string {
	var hash string
	err := s.DB.QueryRowContext(ctx,
		`SELECT password_hash FROM admin WHERE email = $1`,
		admin.NormalizeEmail(email),
	).Scan(&hash)
	s.Require().NoError(err)
	return hash
}

func (s *IntegrationTestSuite) TestHealth() {
	t := s.T()
	ctx := context.Background()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverEndpoint+"/api/health", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestLoginMeChangePassword() {
	t := s.T()
	ctx := context.Background()

	status, loginResp := doJSON(ctx, t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    s.adminEmail,
		"password": s.adminPassword,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, account.MsgLoginSuccessful, loginResp.Message)
	token := loginResp.Data.Token
	require.NotEmpty(t, token)

	status, meResp := doJSON(ctx, t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, admin.NormalizeEmail(s.adminEmail), meResp.Data.Admin.Email)
	assert.Equal(t, admin.RoleAdmin, meResp.Data.Admin.Role)

	status, meResp = doJSON(ctx, t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, middleware.NotAuthorizedMessage, meResp.Message)

	status, _ = doJSON(ctx, t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    s.adminEmail,
		"password": "wrong-" + s.adminPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	hashBefore := s.passwordHash(ctx, s.adminEmail)
	newPassword := s.adminPassword + "-2"
	status, changeResp := doJSON(ctx, t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": s.adminPassword,
		"newPassword":     newPassword,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, account.MsgPasswordChanged, changeResp.Message)
	assert.NotEqual(t, hashBefore, s.passwordHash(ctx, s.adminEmail))

	status, _ = doJSON(ctx, t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    s.adminEmail,
		"password": s.adminPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(ctx, t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    s.adminEmail,
		"password": newPassword,
	})
	assert.Equal(t, http.StatusOK, status)

	// keep the suite credentials current for the tests that follow
	s.adminPassword = newPassword
}

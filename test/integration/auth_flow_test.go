//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authPayload struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type tokenPairPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userPayload struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func TestTokenAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	base := env.server.URL

	// Register.
	registerResp := postJSON(t, base+"/auth/register", map[string]string{
		"email": "a@x.com", "password": "Abc12345!", "name": "A",
	})
	require.Equal(t, http.StatusCreated, registerResp.StatusCode)

	var registered authPayload
	decodeData(t, registerResp, &registered)
	require.NotEmpty(t, registered.AccessToken)
	require.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "a@x.com", registered.User.Email)

	// Login issues a fresh pair.
	loginResp := postJSON(t, base+"/auth/login", map[string]string{
		"email": "a@x.com", "password": "Abc12345!",
	})
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var loggedIn authPayload
	decodeData(t, loginResp, &loggedIn)
	require.NotEmpty(t, loggedIn.RefreshToken)

	// Refresh keeps the subject.
	refreshResp := postJSON(t, base+"/auth/refresh", map[string]string{
		"refresh_token": loggedIn.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refreshResp.StatusCode)

	var pair tokenPairPayload
	decodeData(t, refreshResp, &pair)
	require.NotEmpty(t, pair.AccessToken)

	meResp := getWithBearer(t, base+"/auth/me", pair.AccessToken)
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var me userPayload
	decodeData(t, meResp, &me)
	assert.Equal(t, registered.User.ID, me.User.ID)
	assert.Equal(t, "a@x.com", me.User.Email)

	// A refresh token is not a bearer credential.
	wrongKind := getWithBearer(t, base+"/auth/me", pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, wrongKind.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	base := env.server.URL

	t.Run("weak password lists every violation", func(t *testing.T) {
		resp := postJSON(t, base+"/auth/register", map[string]string{
			"email": "a@x.com", "password": "abc", "name": "A",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		envelope := decodeEnvelope(t, resp)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
		assert.Greater(t, len(envelope.Error.Details), 1)
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		resp := postJSON(t, base+"/auth/register", map[string]string{
			"email": "not-an-email", "password": "Abc12345!", "name": "A",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		first := postJSON(t, base+"/auth/register", map[string]string{
			"email": "dup@x.com", "password": "Abc12345!", "name": "A",
		})
		require.Equal(t, http.StatusCreated, first.StatusCode)

		second := postJSON(t, base+"/auth/register", map[string]string{
			"email": "DUP@X.COM", "password": "Abc12345!", "name": "B",
		})
		require.Equal(t, http.StatusConflict, second.StatusCode)

		envelope := decodeEnvelope(t, second)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "ALREADY_EXISTS", envelope.Error.Code)
	})
}

func TestAuthFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	base := env.server.URL

	registerResp := postJSON(t, base+"/auth/register", map[string]string{
		"email": "a@x.com", "password": "Abc12345!", "name": "A",
	})
	require.Equal(t, http.StatusCreated, registerResp.StatusCode)

	wrongPassword := postJSON(t, base+"/auth/login", map[string]string{
		"email": "a@x.com", "password": "Wrong1234!",
	})
	unknownEmail := postJSON(t, base+"/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "Abc12345!",
	})
	badToken := postJSON(t, base+"/auth/refresh", map[string]string{
		"refresh_token": "garbage",
	})

	wrongEnvelope := decodeEnvelope(t, wrongPassword)
	unknownEnvelope := decodeEnvelope(t, unknownEmail)
	tokenEnvelope := decodeEnvelope(t, badToken)

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	require.Equal(t, http.StatusUnauthorized, badToken.StatusCode)

	// Same code, same message, no cause leaks through any of them.
	assert.Equal(t, wrongEnvelope.Error, unknownEnvelope.Error)
	assert.Equal(t, wrongEnvelope.Error, tokenEnvelope.Error)
}

func TestChangePasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	base := env.server.URL

	registerResp := postJSON(t, base+"/auth/register", map[string]string{
		"email": "a@x.com", "password": "Abc12345!", "name": "A",
	})
	require.Equal(t, http.StatusCreated, registerResp.StatusCode)

	var registered authPayload
	decodeData(t, registerResp, &registered)

	req, err := http.NewRequest(http.MethodPut, base+"/auth/password",
		jsonBody(t, map[string]string{"current_password": "Abc12345!", "new_password": "New12345!"}))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+registered.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	oldLogin := postJSON(t, base+"/auth/login", map[string]string{
		"email": "a@x.com", "password": "Abc12345!",
	})
	assert.Equal(t, http.StatusUnauthorized, oldLogin.StatusCode)

	newLogin := postJSON(t, base+"/auth/login", map[string]string{
		"email": "a@x.com", "password": "New12345!",
	})
	assert.Equal(t, http.StatusOK, newLogin.StatusCode)
}

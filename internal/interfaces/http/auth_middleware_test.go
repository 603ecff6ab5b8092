package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	apphttp "github.com/jhoicas/pharma-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pharma-ledger/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "pharma-ledger-test"
	testExpMin    = 60
)

// guardedApp expone GET /guarded detrás de AuthMiddleware + RequireRole(roles...).
func guardedApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func callGuarded(t *testing.T, app *fiber.App, authHeader string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	if resp.StatusCode != http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

// ─── RequireRole: matriz de permisos del ledger ───

func TestRequireRole_MatrizDeRoles(t *testing.T) {
	cases := []struct {
		name     string
		allowed  []string
		role     string
		wantCode int
		wantErr  string
	}{
		{"recepción: bodeguero permitido", []string{"admin", "bodeguero"}, "bodeguero", http.StatusOK, ""},
		{"recepción: vendedor bloqueado", []string{"admin", "bodeguero"}, "vendedor", http.StatusForbidden, "FORBIDDEN"},
		{"consumo: vendedor permitido", []string{"admin", "bodeguero", "vendedor"}, "vendedor", http.StatusOK, ""},
		{"reconciliación: solo admin", []string{"admin"}, "admin", http.StatusOK, ""},
		{"reconciliación: bodeguero bloqueado", []string{"admin"}, "bodeguero", http.StatusForbidden, "FORBIDDEN"},
		{"rol desconocido", []string{"admin"}, "auditor", http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{"admin"}, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := callGuarded(t, guardedApp(tc.allowed...), bearer(t, tc.role))
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, body.Code)
		})
	}
}

// ─── AuthMiddleware ───

func TestAuthMiddleware_CabecerasInvalidas(t *testing.T) {
	app := guardedApp("admin")

	cases := []struct {
		name    string
		header  string
		wantErr string
	}{
		{"sin cabecera", "", "MISSING_TOKEN"},
		{"esquema distinto", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := callGuarded(t, app, tc.header)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, tc.wantErr, body.Code)
		})
	}
}

func TestAuthMiddleware_TokenDeOtroSecreto(t *testing.T) {
	tok, err := pkgjwt.Generate("otro-secreto", testUserID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	code, body := callGuarded(t, guardedApp("admin"), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", body.Code)
}

func TestAuthMiddleware_CargaUsuarioYRol(t *testing.T) {
	app := guardedApp("admin", "vendedor")
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", bearer(t, "vendedor"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "vendedor", body["role"])
}

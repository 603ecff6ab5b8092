package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateParse_RolBodeguero(t *testing.T) {
	tok, err := jwt.Generate(secret, "U1", "bodeguero", "pharma-ledger", 60)
	require.NoError(t, err)

	userID, role, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "U1", userID)
	assert.Equal(t, "bodeguero", role)
}

func TestParse_Expirado(t *testing.T) {
	// Expirado hace 5 minutos: fuera de la tolerancia de reloj.
	tok, err := jwt.Generate(secret, "U1", "admin", "pharma-ledger", -5)
	require.NoError(t, err)

	_, _, err = jwt.Parse(secret, tok)
	assert.Error(t, err)
}

func TestParse_SecretoDistinto(t *testing.T) {
	tok, err := jwt.Generate(secret, "U1", "admin", "pharma-ledger", 60)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro-secreto", tok)
	assert.Error(t, err)
}

func TestParse_SecretoVacio(t *testing.T) {
	_, err := jwt.Generate("", "U1", "admin", "x", 60)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)

	_, _, err = jwt.Parse("", "a.b.c")
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}

func TestParse_SubjectComoOperador(t *testing.T) {
	claims := gojwt.RegisteredClaims{
		Subject:   "U9",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	userID, role, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "U9", userID)
	assert.Empty(t, role)
}

func TestParse_SinExpiracionRechazado(t *testing.T) {
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{Subject: "U9"}).
		SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, err = jwt.Parse(secret, tok)
	assert.Error(t, err)
}

func TestParse_AlgoritmoDistintoRechazado(t *testing.T) {
	claims := gojwt.RegisteredClaims{Subject: "U1", ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, err = jwt.Parse(secret, tok)
	assert.Error(t, err)
}

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pharma-ledger/internal/application/auth"
	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/pkg/jwt"
)

const secret = "test-secret"

func newUC(s *memory.Store) *auth.AuthUseCase {
	return auth.NewAuthUseCase(s.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"})
}

func TestAuth_RegisterYLogin(t *testing.T) {
	s := memory.NewStore()
	uc := newUC(s)
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "bodega@farmacia.co", Password: "secreto123", Role: entity.RoleBodeguero})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBodeguero, u.Role)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "bodega@farmacia.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	res, err := uc.Login(ctx, dto.LoginRequest{Email: "bodega@farmacia.co", Password: "secreto123"})
	require.NoError(t, err)
	userID, role, err := jwt.Parse(secret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, entity.RoleBodeguero, role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "bodega@farmacia.co", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@farmacia.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuth_NoRegistraRolSistema(t *testing.T) {
	uc := newUC(memory.NewStore())
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "x@y.co", Password: "secreto123", Role: entity.RoleSystem})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuth_RolDesconocidoRechazado(t *testing.T) {
	uc := newUC(memory.NewStore())
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "x@y.co", Password: "secreto123", Role: "auditor"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuth_OperadorSistemaNoIniciaSesion(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, &entity.User{
		ID: "SYS", Email: "system@pharma-ledger.local", PasswordHash: string(hash),
		Role: entity.RoleSystem, Status: entity.UserStatusActive,
	}))
	require.NoError(t, s.Users().Create(ctx, &entity.User{
		ID: "OFF", Email: "baja@farmacia.co", PasswordHash: string(hash),
		Role: entity.RoleVendedor, Status: entity.UserStatusInactive,
	}))

	_, err = newUC(s).Login(ctx, dto.LoginRequest{Email: "system@pharma-ledger.local", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = newUC(s).Login(ctx, dto.LoginRequest{Email: "baja@farmacia.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

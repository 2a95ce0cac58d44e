package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	Init("test-secret", 10)

	token, err := GenerateToken("c1", "Customer", "c1@example.com")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "c1", claims.Id)
	assert.Equal(t, "Customer", claims.UserType)
	assert.Equal(t, "c1@example.com", claims.Email)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
}

func TestParseTokenWrongSecret(t *testing.T) {
	Init("secret-a", 10)
	token, err := GenerateToken("c1", "Customer", "")
	require.NoError(t, err)

	Init("secret-b", 10)
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	Init("test-secret", 10)
	claims := Claims{
		Id:       "c1",
		UserType: "Customer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	Init("test-secret", 10)
	claims := Claims{Id: "c1", UserType: "admin"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	Init("test-secret", 10)
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestPeekClaimsIgnoresSignature(t *testing.T) {
	Init("issuer-secret", 10)
	token, err := GenerateToken("ops_1", "admin", "ops@example.com")
	require.NoError(t, err)

	// 客户端不知道密钥也能读出身份
	Init("other-secret", 10)
	claims, err := PeekClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "ops_1", claims.Id)
	assert.Equal(t, "admin", claims.UserType)

	_, err = ParseToken(token)
	assert.Error(t, err)

	_, err = PeekClaims("not-a-token")
	assert.Error(t, err)
}

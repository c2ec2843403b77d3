package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret-key", 24*time.Hour, 8*time.Hour)
}

func TestGenerateAndValidateUserToken(t *testing.T) {
	mgr := newTestJWTManager()

	token, err := mgr.GenerateToken(RealmUser, "user-1", "Jan Kowalski", "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := mgr.ValidateTokenForRealm(token, RealmUser)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, RealmUser, claims.Realm)
	assert.Equal(t, "Jan Kowalski", claims.Name)
}

func TestGenerateAndValidateAdminToken(t *testing.T) {
	mgr := newTestJWTManager()

	token, err := mgr.GenerateToken(RealmAdmin, "admin-1", "Admin", "admin")
	require.NoError(t, err)

	claims, err := mgr.ValidateTokenForRealm(token, RealmAdmin)
	require.NoError(t, err)
	assert.Equal(t, RealmAdmin, claims.Realm)
	assert.Equal(t, "admin", claims.Role)
}

func TestRealmMismatchRejected(t *testing.T) {
	mgr := newTestJWTManager()

	token, err := mgr.GenerateToken(RealmUser, "user-1", "", "")
	require.NoError(t, err)

	_, err = mgr.ValidateTokenForRealm(token, RealmAdmin)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected realm admin")
}

func TestInvalidSecretRejected(t *testing.T) {
	mgr1 := NewJWTManager("secret-1", 24*time.Hour, 8*time.Hour)
	mgr2 := NewJWTManager("secret-2", 24*time.Hour, 8*time.Hour)

	token, err := mgr1.GenerateToken(RealmUser, "user-1", "", "")
	require.NoError(t, err)

	_, err = mgr2.ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := NewJWTManager("secret", 1*time.Millisecond, 1*time.Millisecond)

	token, err := mgr.GenerateToken(RealmUser, "user-1", "", "")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = mgr.ValidateToken(token)
	assert.Error(t, err)
}

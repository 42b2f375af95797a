package repository

import (
	"context"
	"testing"

	authdomain "mail-assistant/internal/auth/domain"

	"github.com/stretchr/testify/require"
)

func TestMemoryTokenRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTokenRepository()

	got, err := repo.FindByUserID(ctx, "dev_user")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, repo.Save(ctx, &authdomain.UserToken{UserID: "dev_user", Token: `{"access_token":"a"}`}))
	got, err = repo.FindByUserID(ctx, "dev_user")
	require.NoError(t, err)
	require.Equal(t, `{"access_token":"a"}`, got.Token)

	require.NoError(t, repo.Delete(ctx, "dev_user"))
	require.NoError(t, repo.Delete(ctx, "dev_user"))
	got, err = repo.FindByUserID(ctx, "dev_user")
	require.NoError(t, err)
	require.Nil(t, got)
}

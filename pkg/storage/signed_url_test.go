package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("exp-1", "salary/2025-03.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	id, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "exp-1", id)
	require.Equal(t, "salary/2025-03.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }
	token, _, err := signer.Generate("exp-1", "salary/2025-03.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, _, _, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	id, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "exp-1", id)
	require.Equal(t, "salary/2025-03.csv", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("exp-1", "salary/2025-03.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = signer.Parse("not-a-token", false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Generate("bad.id", "x.csv")
	require.Error(t, err)
}

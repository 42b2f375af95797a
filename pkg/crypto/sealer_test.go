package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer("secret")
	require.NoError(t, err)

	sealed, err := s.Seal([]byte(`{"access_token":"abc"}`))
	require.NoError(t, err)
	require.NotContains(t, sealed, "abc")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, `{"access_token":"abc"}`, string(plain))
}

func TestSealerNonceIsRandom(t *testing.T) {
	s, err := NewSealer("secret")
	require.NoError(t, err)
	a, err := s.Seal([]byte("x"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("x"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSealerRejectsWrongKeyAndGarbage(t *testing.T) {
	s1, _ := NewSealer("one")
	s2, _ := NewSealer("two")
	sealed, err := s1.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = s2.Open(sealed)
	require.Error(t, err)

	_, err = s1.Open("!!not-base64!!")
	require.ErrorIs(t, err, ErrMalformedCiphertext)

	_, err = s1.Open("AAAA")
	require.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestNewSealerRequiresPassphrase(t *testing.T) {
	_, err := NewSealer("")
	require.Error(t, err)
}

package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomString(t *testing.T) {
	for size, wantLen := range map[int]int{entropy128: 22, entropy256: 43} {
		a, err := randomString(size)
		require.NoError(t, err)
		require.Len(t, a, wantLen)

		b, err := randomString(size)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("andrewthian@gmail.com")
	require.Len(t, a, 43)
	require.Equal(t, a, Fingerprint("andrewthian@gmail.com"))
	require.NotEqual(t, a, Fingerprint("someone@else.com"))
}

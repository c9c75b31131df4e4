package cryptox

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	assert.Len(t, s, n*2)

	_, err = hex.DecodeString(s)
	assert.NoError(t, err)
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestMakeRandHexString_RandError(t *testing.T) {
	orig := randRead
	t.Cleanup(func() { randRead = orig })
	randRead = func(b []byte) (int, error) { return 0, errors.New("no entropy") }

	_, err := MakeRandHexString(8)
	assert.EqualError(t, err, "no entropy")

	_, err = GenerateRandByteArray(8)
	assert.EqualError(t, err, "no entropy")
}

func TestNewSecret_Format(t *testing.T) {
	a, err := NewSecret()
	require.NoError(t, err)
	b, err := NewSecret()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	if a == b {
		t.Logf("warning: two NewSecret results are identical; extremely unlikely")
	}
}

func TestDeriveVerifier_Deterministic(t *testing.T) {
	salt := []byte("fixed-salt-value")

	v1 := DeriveVerifier("secret", salt)
	v2 := DeriveVerifier("secret", salt)
	assert.True(t, bytes.Equal(v1, v2))
	assert.Len(t, v1, argonKeyLen)

	v3 := DeriveVerifier("secret", []byte("other-salt-value"))
	assert.False(t, bytes.Equal(v1, v3))
}

func TestCheckSecret(t *testing.T) {
	salt, err := GenerateRandByteArray(SaltSize)
	require.NoError(t, err)
	verifier := DeriveVerifier("d3a4646728a9de9a74d8fc4c41966a42", salt)

	tests := []struct {
		name      string
		candidate string
		verifier  []byte
		want      bool
	}{
		{name: "match", candidate: "d3a4646728a9de9a74d8fc4c41966a42", verifier: verifier, want: true},
		{name: "wrong secret", candidate: "wrongkey", verifier: verifier, want: false},
		{name: "case sensitive", candidate: "D3A4646728A9DE9A74D8FC4C41966A42", verifier: verifier, want: false},
		{name: "empty verifier", candidate: "anything", verifier: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckSecret(tt.candidate, salt, tt.verifier))
		})
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)

	WipeByteArray(nil)
}

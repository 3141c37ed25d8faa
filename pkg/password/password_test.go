// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher__roundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("userOnePass")
	require.NoError(t, err)
	assert.NotEqual(t, "userOnePass", digest)

	assert.True(t, h.Verify("userOnePass", digest))
	assert.False(t, h.Verify("userOnePass1", digest))
	assert.False(t, h.Verify("userTwoPass", digest))
}

func TestHasher__salted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("samepassword")
	require.NoError(t, err)
	second, err := h.Hash("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("samepassword", first))
	assert.True(t, h.Verify("samepassword", second))
}

func TestHasher__invalidInput(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	cases := []struct {
		input string
		err   error
	}{
		{"", ErrEmptyPassword},
		{strings.Repeat("a", 73), ErrPasswordTooLong},
	}
	for i := range cases {
		_, err := h.Hash(cases[i].input)
		if !errors.Is(err, cases[i].err) {
			t.Errorf("input len=%d: got %v", len(cases[i].input), err)
		}
	}

	_, err := h.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestHasher__malformedDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	cases := []string{
		"",
		"not-a-digest",
		"$2a$04$short",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}
	for i := range cases {
		if h.Verify("password", cases[i]) {
			t.Errorf("digest=%q verified", cases[i])
		}
	}
	assert.False(t, h.Verify("", "$2a$04$short"))
}

func TestHasher__verifyTooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	pass := strings.Repeat("a", MaxLength)
	digest, err := h.Hash(pass)
	require.NoError(t, err)
	assert.True(t, h.Verify(pass, digest))

	// bcrypt ignores everything past MaxLength bytes
	assert.False(t, h.Verify(pass+"EXTRA", digest))
	assert.False(t, h.Verify(pass+"a", digest))
}

func TestHasher__cost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).Cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).Cost)

	var h Hasher
	digest, err := h.Hash("zero-value")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

package fairness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministic(t *testing.T) {
	g := NewHMACGenerator(DefaultHouseEdge)

	first := g.Derive("abc", "def", 1)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, g.Derive("abc", "def", 1))
	}
}

func TestDeriveRegressionFixture(t *testing.T) {
	g := NewHMACGenerator(DefaultHouseEdge)

	// HMAC-SHA256(key="abc", msg="def:1"), first 13 hex chars, 1% edge.
	require.Equal(t, 3.85, g.Derive("abc", "def", 1))
}

func TestDeriveNeverBelowFloor(t *testing.T) {
	g := NewHMACGenerator(DefaultHouseEdge)

	for nonce := int64(1); nonce <= 500; nonce++ {
		crash := g.Derive("server-seed", "client-seed", nonce)
		require.GreaterOrEqual(t, crash, 1.00, "nonce %d", nonce)
	}
}

func TestDeriveChangesWithNonce(t *testing.T) {
	g := NewHMACGenerator(DefaultHouseEdge)

	a := g.Derive("abc", "def", 1)
	b := g.Derive("abc", "def", 2)
	require.NotEqual(t, a, b)
}

func TestVerify(t *testing.T) {
	g := NewHMACGenerator(DefaultHouseEdge)

	crash := g.Derive("seed", "client", 7)
	require.True(t, g.Verify("seed", "client", 7, crash))
	require.False(t, g.Verify("seed", "client", 7, crash+0.01))
	require.False(t, g.Verify("other", "client", 7, crash))
}

func TestCommitmentHash(t *testing.T) {
	seed := NewServerSeed()
	require.Len(t, seed, 64)

	hash := CommitmentHash(seed)
	require.Len(t, hash, 64)
	require.NotEqual(t, seed, hash)
	require.Equal(t, hash, CommitmentHash(seed))
}

func TestBandGeneratorStaysInRange(t *testing.T) {
	g := NewBandGenerator()

	for i := 0; i < 10000; i++ {
		crash := g.Derive("", "", 0)
		require.GreaterOrEqual(t, crash, 1.00)
		require.LessOrEqual(t, crash, 20.00)
	}
}

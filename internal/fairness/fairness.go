package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	mrand "math/rand/v2"
	"strconv"
)

const DefaultHouseEdge = 0.01 // 1%

// Generator produces the crash multiplier for a round.
type Generator interface {
	Derive(serverSeed, clientSeed string, nonce int64) float64
}

// HMACGenerator is the provably-fair generator. The crash point is a pure
// function of (serverSeed, clientSeed, nonce): anyone holding the revealed
// server seed can recompute it and check it against the published commitment.
type HMACGenerator struct {
	HouseEdge float64
}

func NewHMACGenerator(houseEdge float64) *HMACGenerator {
	return &HMACGenerator{HouseEdge: houseEdge}
}

func (g *HMACGenerator) Derive(serverSeed, clientSeed string, nonce int64) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(mac, "%s:%d", clientSeed, nonce)
	digest := hex.EncodeToString(mac.Sum(nil))

	// First 13 hex chars = 52 bits, uniform in [0, 2^52).
	h, err := strconv.ParseUint(digest[:13], 16, 64)
	if err != nil {
		// Cannot happen for a hex digest; crash at the floor if it does.
		return 1.00
	}

	crash := (float64(1<<52) / float64(h+1)) * (1 - g.HouseEdge)
	return round2(math.Max(1.0, crash))
}

// Verify recomputes the crash point from revealed seeds. It returns true when
// the published value matches the derivation.
func (g *HMACGenerator) Verify(serverSeed, clientSeed string, nonce int64, crashPoint float64) bool {
	return g.Derive(serverSeed, clientSeed, nonce) == crashPoint
}

// BandGenerator samples the crash point from fixed probability bands. It is
// not verifiable by players; kept as a fallback behind the same interface.
// Bands: 70% in [1,2), 20% in [2,4), 8% in [4,10), 2% in [10,20].
type BandGenerator struct{}

func NewBandGenerator() *BandGenerator {
	return &BandGenerator{}
}

func (g *BandGenerator) Derive(_, _ string, _ int64) float64 {
	r := mrand.Float64()
	switch {
	case r < 0.7:
		return round2(uniform(1.0, 2.0))
	case r < 0.9:
		return round2(uniform(2.0, 4.0))
	case r < 0.98:
		return round2(uniform(4.0, 10.0))
	default:
		return math.Min(round2(uniform(10.0, 20.0)), 20.0) // hard cap at 20x
	}
}

// NewServerSeed returns a fresh high-entropy server seed as 64 hex chars.
func NewServerSeed() string {
	return randomHex(32)
}

// NewClientSeed returns a system-generated client seed as 32 hex chars.
func NewClientSeed() string {
	return randomHex(16)
}

// CommitmentHash is the SHA-256 commitment published before a round opens.
func CommitmentHash(serverSeed string) string {
	h := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(h[:])
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("fairness: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func uniform(lo, hi float64) float64 {
	return lo + mrand.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

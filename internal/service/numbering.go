package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	InvoicePrefix  = "INV"
	PurchasePrefix = "PO"

	numberAttempts = 5
	numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberSuffix   = 6
)

// NumberExistsFunc reports whether a document already uses number.
type NumberExistsFunc func(ctx context.Context, number string) (bool, error)

// NumberGenerator builds document numbers of the form PREFIX-YYYYMMDD-XXXXXX.
// Random suffixes are retried a bounded number of times; after that the
// suffix comes from a fresh UUID. The unique index on the number column is
// the final guard.
type NumberGenerator struct {
	Prefix string
	Now    func() time.Time
	Suffix func() (string, error)
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{Prefix: prefix, Now: time.Now, Suffix: randomSuffix}
}

func (g *NumberGenerator) Next(ctx context.Context, exists NumberExistsFunc) (string, error) {
	day := g.Now().Format("20060102")
	for attempt := 0; attempt < numberAttempts; attempt++ {
		suffix, err := g.Suffix()
		if err != nil {
			return "", fmt.Errorf("number suffix: %w", err)
		}
		candidate := fmt.Sprintf("%s-%s-%s", g.Prefix, day, suffix)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("number lookup: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	fallback := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return fmt.Sprintf("%s-%s-%s", g.Prefix, day, fallback), nil
}

func randomSuffix() (string, error) {
	buf := make([]byte, numberSuffix)
	upper := big.NewInt(int64(len(numberAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, upper)
		if err != nil {
			return "", err
		}
		buf[i] = numberAlphabet[n.Int64()]
	}
	return string(buf), nil
}

package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/predyx/backend/internal/repository"
)

// codeAlphabet excludes visually confusable characters (0/O and 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// MinCodeLength and MaxCodeLength bound the accepted code format.
	MinCodeLength = 6
	MaxCodeLength = 8

	defaultCodeLength  = 6
	defaultMaxAttempts = 10
)

// ErrGenerationExhausted is returned when every random draw collided
// with an existing code within the attempt budget.
var ErrGenerationExhausted = errors.New("referral code generation exhausted")

// CodeGenerator produces unique referral codes, either randomly with
// collision retries against the store, or deterministically from a
// wallet address so concurrent first-time generation converges on the
// same code without a lock.
type CodeGenerator struct {
	accounts    repository.AccountRepo
	length      int
	maxAttempts int
}

// NewCodeGenerator creates a code generator with the given code length.
// A length outside the accepted bounds falls back to the default.
func NewCodeGenerator(accounts repository.AccountRepo, length int) *CodeGenerator {
	if length < MinCodeLength || length > MaxCodeLength {
		length = defaultCodeLength
	}
	return &CodeGenerator{
		accounts:    accounts,
		length:      length,
		maxAttempts: defaultMaxAttempts,
	}
}

// GenerateUnique draws random codes until one does not exist in the
// store, up to the attempt budget.
func (g *CodeGenerator) GenerateUnique(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.randomCode()
		if err != nil {
			return "", fmt.Errorf("error drawing referral code: %w", err)
		}
		exists, err := g.accounts.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

// DeterministicFor derives a code from the keccak-256 hash of the
// lowercased wallet address. The same wallet always yields the same
// code, which resolves the first-generation race: both writers compute
// the identical code and the store's unique index picks the winner.
func (g *CodeGenerator) DeterministicFor(wallet string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(strings.ToLower(strings.TrimSpace(wallet))))
	sum := hash.Sum(nil)

	code := make([]byte, g.length)
	for i := range code {
		code[i] = codeAlphabet[int(sum[i])%len(codeAlphabet)]
	}
	return string(code)
}

func (g *CodeGenerator) randomCode() (string, error) {
	code := make([]byte, g.length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeCode uppercases and trims a user-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCodeFormat reports whether a code has an accepted length and
// draws only from the unambiguous alphabet. Checked before any store
// lookup so malformed input never reaches the database.
func ValidCodeFormat(code string) bool {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}

package hashing

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

func TestHashNeverStoresPlaintext(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "pw" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if err := h.Compare(hash, "pw"); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
}

func TestCompareMismatchIsUnauthorized(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if err := h.Compare(hash, "pw2"); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	if got := NewBcryptHasher(1).cost; got != bcrypt.MinCost {
		t.Fatalf("expected min cost, got %d", got)
	}
	if got := NewBcryptHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("p", 73))
	if !domain.IsKind(err, domain.ErrInvalidInput) || !domain.IsKind(err, domain.ErrPasswordTooLong) {
		t.Fatalf("expected ErrInvalidInput for 73 bytes, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("p", 72)); err != nil {
		t.Fatalf("72 bytes must be accepted, got %v", err)
	}
}

package business

import (
	"errors"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"golang.org/x/crypto/bcrypt"
)

// PinHasher hashes and checks actor PINs.
type PinHasher interface {
	Hash(pin string) (string, error)
	Compare(hash string, pin string) error
}

type bcryptPinHasher struct {
	cost int
}

func NewPinHasher(cost int) PinHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptPinHasher{cost: cost}
}

func (h *bcryptPinHasher) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *bcryptPinHasher) Compare(hash string, pin string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return types.Unauthorized("incorrect pin")
	}
	return err
}

// checkPin applies the PIN gate for actor.
func checkPin(hasher PinHasher, actor *types.Actor, pin string) error {
	if !actor.HasPin() {
		return types.PinNotConfigured("actor %s has not set a pin", actor.ID)
	}
	return hasher.Compare(actor.PinHash, pin)
}

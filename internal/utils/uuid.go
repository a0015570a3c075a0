// Package utils holds small general-purpose helpers shared by the vault
// services.
package utils

import "github.com/google/uuid"

// UUIDGenerator produces record identifiers. UUIDv7 is preferred so that
// ids sort roughly by creation time; the random v4 form is the fallback
// when the v7 clock source fails.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

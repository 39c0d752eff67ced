// Package id generates identifiers for stored assets.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generator produces identifiers that are safe to use as a single path
// component.
type Generator interface {
	Generate() string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) Generate() string { return f() }

// Generate returns a random (v4) UUID as 32 lowercase hex characters, with
// no separators.
func Generate() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Default is the Generator backed by Generate.
var Default Generator = GeneratorFunc(Generate)

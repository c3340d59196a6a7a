package board

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind prefixes generated identifiers.
type Kind string

const (
	KindBoard   Kind = "board"
	KindGroup   Kind = "group"
	KindItem    Kind = "item"
	KindSubitem Kind = "subitem"
	KindColumn  Kind = "col"
	KindPerson  Kind = "person"
	KindUpdate  Kind = "update"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID returns "<kind>-<nanoid>-<unix ms>".
func GenerateID(kind Kind) (string, error) {
	random, err := gonanoid.Generate(idAlphabet, 9)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return fmt.Sprintf("%s-%s-%d", kind, random, now().UnixMilli()), nil
}

// NewID is GenerateID for callers that cannot recover from an exhausted
// entropy source.
func NewID(kind Kind) string {
	id, err := GenerateID(kind)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

package generator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

type CodeGenerator struct{}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

// GenerateOrderCode produces the human-facing order reference handed to the
// buyer at checkout.
func (g *CodeGenerator) GenerateOrderCode(userID string) (string, error) {
	randomBytes := make([]byte, 8)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("ORD-%s", hex.EncodeToString(randomBytes)), nil
}

// GenerateOriginID identifies one running service instance on the sync
// channel. Uniqueness matters more than readability here.
func (g *CodeGenerator) GenerateOriginID() string {
	return fmt.Sprintf("origin-%s", uuid.NewString())
}

func (g *CodeGenerator) GenerateOrderID() string {
	return uuid.NewString()
}

func (g *CodeGenerator) GenerateApplicationID() string {
	return uuid.NewString()
}

func (g *CodeGenerator) GenerateProductID() string {
	return uuid.NewString()
}

func (g *CodeGenerator) GeneratePresetID() string {
	return uuid.NewString()
}

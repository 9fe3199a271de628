package ai

import (
	"context"
	"fmt"
)

// Disabled is the generator used when no API key is configured. Every call
// fails, which the bridge converts into its fixed fallback text.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("ai assistant is not configured")
}

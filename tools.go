//go:build tools

package tools

// Pins the mockery version used for pkg/regmap/mocks. Run: mockery
// (from the module root) to regenerate.
import (
	_ "github.com/vektra/mockery/v2"
)

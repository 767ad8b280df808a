package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/setuptrader/internal/domain"
)

func TestWithExitCodeWrapsAndUnwraps(t *testing.T) {
	base := errors.New("boom")
	wrapped := withExitCode(2, base)

	var coder exitCoder
	assert.True(t, errors.As(wrapped, &coder))
	assert.Equal(t, 2, coder.ExitCode())
	assert.True(t, errors.Is(wrapped, base))
}

func TestWithExitCodeNilIsNil(t *testing.T) {
	assert.Nil(t, withExitCode(1, nil))
}

func TestDeriveRegimeFromFlagsHealthyDefaults(t *testing.T) {
	runBreadth, runYield, runSpread = 0.70, 50, 100
	assert.Equal(t, domain.RegimeHealthy, deriveRegimeFromFlags())
}

func TestDeriveRegimeFromFlagsCrisis(t *testing.T) {
	runBreadth, runYield, runSpread = 0.20, -60, 600
	assert.Equal(t, domain.RegimeCrisis, deriveRegimeFromFlags())
}

package device

import (
	"math"

	"github.com/edp1096/toy-mna/internal/consts"
)

const expLimit = 80.0

// limitedExp continues exp linearly past expLimit so a wild Newton step
// yields a large finite residual instead of +Inf. It returns the value and
// its derivative.
func limitedExp(x float64) (float64, float64) {
	if x > expLimit {
		e := math.Exp(expLimit)
		return e * (1 + x - expLimit), e
	}
	e := math.Exp(x)
	return e, e
}

// thermalVoltage is kT/q at temp in °C.
func thermalVoltage(temp float64) float64 {
	return consts.BOLTZMANN * (temp + consts.KELVIN) / consts.CHARGE
}

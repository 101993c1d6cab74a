package matrix

// Ground is the address of the reference node. Every stamping primitive skips it.
const Ground = -1

// Stamper is the assembly surface handed to devices.
type Stamper interface {
	Size() int
	StampConductance(a, b int, g float64) error
	StampVoltageSource(a, b, aux int, value float64) error
	StampCurrent(a, b int, current float64) error
	StampLHS(row, col int, value float64) error // additive
	StampRHS(row int, value float64) error      // overwrite
}

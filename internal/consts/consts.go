package consts

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)
)

const (
	ThermalVoltage  = 0.025852 // kT/q near 300 K (V)
	RoomTemperature = 27.0     // (°C)
)

// Simulator defaults.
const (
	DefaultTickRate      = 0.05  // (s)
	InitialConditionTick = 1e-10 // (s)
	MaxNewtonIterations  = 500
	MaxDampingSteps      = 50
	NewtonTolerance      = 1e-6
	Gmin                 = 1e-12 // (S)
)

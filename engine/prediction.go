package engine

import (
	"hfprop/ionosphere"
	"hfprop/muf"
	"hfprop/noise"
)

// NoSignalSNR is reported for frequencies no mode supports.
const NoSignalSNR = -100.0

// SignalInfo is the budget of one mode, or of the combined modes.
// Losses and gains are in dB, power in dBW, field strength in dBuV/m and
// SNR in dB-Hz. Deciles are deviations from the median.
type SignalInfo struct {
	FreeSpace   float64
	Absorption  float64
	Deviation   float64
	Ground      float64
	Obscuration float64
	Auroral     float64
	OverMufLoss float64
	TxGain      float64
	RxGain      float64
	// Loss is the total path loss including antenna gains.
	Loss float64

	Power         float64
	PowerUpper    float64
	PowerLower    float64
	FieldStrength float64

	SNR      float64
	SNRUpper float64
	SNRLower float64

	// MufProbability is the chance that the layer supports the frequency
	// on a given day.
	MufProbability float64
	Reliability    float64
	// Delay is the group delay over the ray path, ms.
	Delay float64
}

// ModeResult pairs a ray mode with its budget.
type ModeResult struct {
	Mode   muf.Mode
	Signal SignalInfo
}

// Prediction is the result for one frequency.
type Prediction struct {
	Freq      float64
	Mode      string
	Layer     ionosphere.Layer
	Hops      int
	Elevation float64
	OverMuf   bool

	Signal SignalInfo
	Noise  noise.Distribution
	// Modes holds every evaluated mode, best first.
	Modes []ModeResult

	Muf float64
	Fot float64
	Hpf float64

	// RequiredPowerMargin is the additional transmitter power, dB, needed
	// to reach the required reliability; negative values are surplus.
	RequiredPowerMargin  float64
	ServiceProbability   float64
	MultipathProbability float64

	// LongWeight is the share of the long-distance model in the result.
	LongWeight    float64
	NoPropagation bool
}

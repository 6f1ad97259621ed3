package coeffs

// Synthetic describes a geographically uniform month table. It stands in
// for reference data in tests and demos.
type Synthetic struct {
	// FoF2 at SSN 0 and 100, MHz.
	FoF2 [2]float64
	// FoF2Diurnal is the fractional daily swing of foF2, peaking at 12 UTC.
	FoF2Diurnal float64
	M3000       [2]float64
	// F2Spread is the F2 MUF decile as a fraction of the median.
	F2Spread float64
	// FoEs median/upper/lower in MHz; zero disables sporadic E.
	FoEs      [3]float64
	Land      float64
	HmYmRatio float64
	F1Ratio   float64
	// Atmo1MHz is the atmospheric noise at 1 MHz per 4-hour block, dB above kTb.
	Atmo1MHz   [NumTimeBlocks]float64
	AtmoFreq   [3]float64
	AtmoDecile [4]float64
}

// DefaultSynthetic is a quiet mid-latitude summer ionosphere.
func DefaultSynthetic() Synthetic {
	return Synthetic{
		FoF2:       [2]float64{4.5, 7.0},
		M3000:      [2]float64{3.0, 3.0},
		F2Spread:   0.15,
		Land:       1,
		HmYmRatio:  3,
		F1Ratio:    1,
		Atmo1MHz:   [NumTimeBlocks]float64{80, 78, 65, 60, 70, 80},
		AtmoFreq:   [3]float64{0, -30, -5},
		AtmoDecile: [4]float64{9, 7, 0, 0},
	}
}

// Uniform builds a table whose maps evaluate to the same value everywhere.
func Uniform(month int, s Synthetic) *Table {
	t := &Table{Month: month}
	setVar := func(kind VarMap, v0, v100, diurnal float64) {
		t.Kim[kind][0] = 1
		t.Var[kind][0][0][0] = float32(v0)
		t.Var[kind][1][0][0] = float32(v100)
		t.Var[kind][0][0][1] = float32(v0 * diurnal)
		t.Var[kind][1][0][1] = float32(v100 * diurnal)
	}
	setVar(EsUpper, s.FoEs[1], s.FoEs[1], 0)
	setVar(EsMedian, s.FoEs[0], s.FoEs[0], 0)
	setVar(EsLower, s.FoEs[2], s.FoEs[2], 0)
	setVar(F2, s.FoF2[0], s.FoF2[1], s.FoF2Diurnal)
	setVar(M3000, s.M3000[0], s.M3000[1], 0)
	setVar(F2Spread, s.F2Spread, s.F2Spread, 0)

	for k, v := range [NumFixedMaps]float64{s.Land, s.HmYmRatio, s.F1Ratio} {
		t.FixedKim[k][0] = 1
		t.Fixed[k][0] = float32(v)
	}
	t.AtmoKim[0] = 1
	for b := 0; b < NumTimeBlocks; b++ {
		t.Atmo[b][0] = float32(s.Atmo1MHz[b])
		for i := range s.AtmoFreq {
			t.AtmoFreq[b][i] = float32(s.AtmoFreq[i])
		}
		for i := range s.AtmoDecile {
			t.AtmoDecile[b][i] = float32(s.AtmoDecile[i])
		}
	}
	return t
}

// UniformYear builds a StaticProvider with the same synthetic table for
// every month.
func UniformYear(s Synthetic) StaticProvider {
	p := make(StaticProvider, 12)
	for m := 1; m <= 12; m++ {
		p[m] = Uniform(m, s)
	}
	return p
}

package coeffs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// On-disk layout: two little-endian files per month with no header.
// COEFFnn.DAT holds the variable-map index table followed by the
// variable-map coefficients; AUXnn.DAT holds the fixed maps and the
// atmospheric noise tables. Field order matches the structs below.

type coeffImage struct {
	Kim [NumVarMaps][MaxOrders]int32
	Var [NumVarMaps][2][MaxGeoTerms][MaxFourier]float32
}

type auxImage struct {
	FixedKim   [NumFixedMaps][MaxOrders]int32
	Fixed      [NumFixedMaps][MaxGeoTerms]float32
	AtmoKim    [MaxOrders]int32
	Atmo       [NumTimeBlocks][MaxGeoTerms]float32
	AtmoFreq   [NumTimeBlocks][3]float32
	AtmoDecile [NumTimeBlocks][4]float32
}

var (
	coeffImageSize = binary.Size(coeffImage{})
	auxImageSize   = binary.Size(auxImage{})
)

// CoeffFileName returns the variable-map file name for month.
func CoeffFileName(month int) string {
	return fmt.Sprintf("COEFF%02d.DAT", month)
}

// AuxFileName returns the fixed-map and noise file name for month.
func AuxFileName(month int) string {
	return fmt.Sprintf("AUX%02d.DAT", month)
}

// MarshalBinary returns the two file images of t.
func (t *Table) MarshalBinary() (coeff, aux []byte, err error) {
	ci := coeffImage{Kim: t.Kim, Var: t.Var}
	ai := auxImage{
		FixedKim:   t.FixedKim,
		Fixed:      t.Fixed,
		AtmoKim:    t.AtmoKim,
		Atmo:       t.Atmo,
		AtmoFreq:   t.AtmoFreq,
		AtmoDecile: t.AtmoDecile,
	}
	var cb, ab bytes.Buffer
	cb.Grow(coeffImageSize)
	ab.Grow(auxImageSize)
	if err := binary.Write(&cb, binary.LittleEndian, &ci); err != nil {
		return nil, nil, fmt.Errorf("coeffs: encode %s: %w", CoeffFileName(t.Month), err)
	}
	if err := binary.Write(&ab, binary.LittleEndian, &ai); err != nil {
		return nil, nil, fmt.Errorf("coeffs: encode %s: %w", AuxFileName(t.Month), err)
	}
	return cb.Bytes(), ab.Bytes(), nil
}

// UnmarshalTable decodes the two file images of a month and validates them.
func UnmarshalTable(month int, coeff, aux []byte) (*Table, error) {
	if len(coeff) != coeffImageSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, expected %d", ErrCorrupt, CoeffFileName(month), len(coeff), coeffImageSize)
	}
	if len(aux) != auxImageSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, expected %d", ErrCorrupt, AuxFileName(month), len(aux), auxImageSize)
	}
	var ci coeffImage
	if err := binary.Read(bytes.NewReader(coeff), binary.LittleEndian, &ci); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, CoeffFileName(month), err)
	}
	var ai auxImage
	if err := binary.Read(bytes.NewReader(aux), binary.LittleEndian, &ai); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, AuxFileName(month), err)
	}
	t := &Table{
		Month:      month,
		Kim:        ci.Kim,
		Var:        ci.Var,
		FixedKim:   ai.FixedKim,
		Fixed:      ai.Fixed,
		AtmoKim:    ai.AtmoKim,
		Atmo:       ai.Atmo,
		AtmoFreq:   ai.AtmoFreq,
		AtmoDecile: ai.AtmoDecile,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteDir writes the month's two files into dir.
func (t *Table) WriteDir(dir string) error {
	coeff, aux, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("coeffs: create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, CoeffFileName(t.Month)), coeff, 0o644); err != nil {
		return fmt.Errorf("coeffs: write: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, AuxFileName(t.Month)), aux, 0o644); err != nil {
		return fmt.Errorf("coeffs: write: %w", err)
	}
	return nil
}

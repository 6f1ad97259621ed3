package coeffs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Provider loads one month of coefficients. Implementations must be safe
// for concurrent use; returned tables must not be modified.
type Provider interface {
	LoadMonth(ctx context.Context, month int) (*Table, error)
}

// DirProvider reads COEFFnn.DAT / AUXnn.DAT pairs from a directory.
type DirProvider struct {
	Dir string
}

func (p DirProvider) LoadMonth(ctx context.Context, month int) (*Table, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coeff, err := readMonthFile(p.Dir, CoeffFileName(month))
	if err != nil {
		return nil, err
	}
	aux, err := readMonthFile(p.Dir, AuxFileName(month))
	if err != nil {
		return nil, err
	}
	return UnmarshalTable(month, coeff, aux)
}

func readMonthFile(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s in %s", ErrMonthNotFound, name, dir)
		}
		return nil, fmt.Errorf("coeffs: read %s: %w", name, err)
	}
	return data, nil
}

func checkMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrMonthNotFound, month)
	}
	return nil
}

// StaticProvider serves tables held in memory, keyed by month.
type StaticProvider map[int]*Table

func (p StaticProvider) LoadMonth(ctx context.Context, month int) (*Table, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	t, ok := p[month]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: month %d", ErrMonthNotFound, month)
	}
	return t, nil
}

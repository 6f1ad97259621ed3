package coeffs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

const (
	storeVersion = 1

	storeKeyPrefix   = "month|"
	storeMetaVersion = "meta|version"
	checksumLen      = 8
)

// storedMonth is the msgpack record kept per month. Coeff and Aux are the
// exact file images so the store round-trips byte for byte.
type storedMonth struct {
	Version    int    `msgpack:"v"`
	Month      int    `msgpack:"m"`
	Coeff      []byte `msgpack:"c"`
	Aux        []byte `msgpack:"a"`
	ImportedAt int64  `msgpack:"t"`
}

// StoreOptions configures a Pebble-backed Store.
type StoreOptions struct {
	CacheBytes int64
	ReadOnly   bool
	Logger     *log.Logger
}

// Store persists month tables in Pebble. Values are a checksum followed by
// a zstd-compressed msgpack record.
// Key aspects: keys are "month|NN"; a version key guards the value format.
type Store struct {
	db     *pebble.DB
	cache  *pebble.Cache
	path   string
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *log.Logger
}

// OpenStore opens or creates the store at path.
func OpenStore(path string, opts StoreOptions) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("coeffs: store path is empty")
	}
	popts := &pebble.Options{ReadOnly: opts.ReadOnly}
	if opts.CacheBytes > 0 {
		popts.Cache = pebble.NewCache(opts.CacheBytes)
	}
	level := pebble.LevelOptions{
		FilterPolicy: bloom.FilterPolicy(10),
		FilterType:   pebble.TableFilter,
	}
	popts.Levels = make([]pebble.LevelOptions, 7)
	for i := range popts.Levels {
		popts.Levels[i] = level
	}
	db, err := pebble.Open(path, popts)
	if err != nil {
		if popts.Cache != nil {
			popts.Cache.Unref()
		}
		return nil, fmt.Errorf("coeffs: open store: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = db.Close()
		if popts.Cache != nil {
			popts.Cache.Unref()
		}
		return nil, fmt.Errorf("coeffs: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		if popts.Cache != nil {
			popts.Cache.Unref()
		}
		return nil, fmt.Errorf("coeffs: zstd decoder: %w", err)
	}
	s := &Store{db: db, cache: popts.Cache, path: path, enc: enc, dec: dec, logger: opts.Logger}
	if err := s.checkVersion(opts.ReadOnly); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) checkVersion(readOnly bool) error {
	data, closer, err := s.db.Get([]byte(storeMetaVersion))
	if errors.Is(err, pebble.ErrNotFound) {
		if readOnly {
			return nil
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], storeVersion)
		if err := s.db.Set([]byte(storeMetaVersion), buf[:], pebble.Sync); err != nil {
			return fmt.Errorf("coeffs: write store version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("coeffs: read store version: %w", err)
	}
	defer closer.Close()
	if len(data) != 8 {
		return fmt.Errorf("%w: store version key", ErrCorrupt)
	}
	if v := binary.BigEndian.Uint64(data); v != storeVersion {
		return fmt.Errorf("coeffs: store version %d unsupported (expected %d)", v, storeVersion)
	}
	return nil
}

// Close releases Pebble and codec resources.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.cache != nil {
		s.cache.Unref()
	}
	if s.enc != nil {
		_ = s.enc.Close()
	}
	if s.dec != nil {
		s.dec.Close()
	}
	return err
}

func monthKey(month int) []byte {
	return []byte(fmt.Sprintf("%s%02d", storeKeyPrefix, month))
}

// Put stores t, replacing any previous table for the same month.
func (s *Store) Put(t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	coeff, aux, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	payload, err := msgpack.Marshal(&storedMonth{
		Version:    storeVersion,
		Month:      t.Month,
		Coeff:      coeff,
		Aux:        aux,
		ImportedAt: time.Now().UTC().Unix(),
	})
	if err != nil {
		return fmt.Errorf("coeffs: encode month %d: %w", t.Month, err)
	}
	value := make([]byte, checksumLen, checksumLen+len(payload)/2)
	binary.BigEndian.PutUint64(value, xxh3.Hash(payload))
	value = s.enc.EncodeAll(payload, value)
	if err := s.db.Set(monthKey(t.Month), value, pebble.Sync); err != nil {
		return fmt.Errorf("coeffs: store month %d: %w", t.Month, err)
	}
	if s.logger != nil {
		s.logger.Printf("coeffs: stored month %02d (%d bytes compressed from %d)", t.Month, len(value), len(payload))
	}
	return nil
}

// LoadMonth implements Provider.
func (s *Store) LoadMonth(ctx context.Context, month int) (*Table, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, closer, err := s.db.Get(monthKey(month))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: month %d not in store %s", ErrMonthNotFound, month, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("coeffs: load month %d: %w", month, err)
	}
	defer closer.Close()
	if len(data) < checksumLen {
		return nil, fmt.Errorf("%w: month %d value truncated", ErrCorrupt, month)
	}
	want := binary.BigEndian.Uint64(data[:checksumLen])
	payload, err := s.dec.DecodeAll(data[checksumLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: month %d: %v", ErrCorrupt, month, err)
	}
	if got := xxh3.Hash(payload); got != want {
		return nil, fmt.Errorf("%w: month %d checksum %016x, expected %016x", ErrCorrupt, month, got, want)
	}
	var rec storedMonth
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: month %d: %v", ErrCorrupt, month, err)
	}
	if rec.Version != storeVersion || rec.Month != month {
		return nil, fmt.Errorf("%w: month %d record has version %d month %d", ErrCorrupt, month, rec.Version, rec.Month)
	}
	return UnmarshalTable(month, rec.Coeff, rec.Aux)
}

// Months lists the months present in the store in ascending order.
func (s *Store) Months() ([]int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(storeKeyPrefix),
		UpperBound: []byte(storeKeyPrefix + "~"),
	})
	if err != nil {
		return nil, fmt.Errorf("coeffs: iterate store: %w", err)
	}
	defer iter.Close()
	var months []int
	for iter.First(); iter.Valid(); iter.Next() {
		m, err := strconv.Atoi(strings.TrimPrefix(string(iter.Key()), storeKeyPrefix))
		if err != nil {
			continue
		}
		months = append(months, m)
	}
	return months, iter.Error()
}

// Import copies every month available from src into the store and returns
// the months written. Missing months are skipped.
func (s *Store) Import(ctx context.Context, src Provider) ([]int, error) {
	var written []int
	for m := 1; m <= 12; m++ {
		t, err := src.LoadMonth(ctx, m)
		if errors.Is(err, ErrMonthNotFound) {
			continue
		}
		if err != nil {
			return written, err
		}
		if err := s.Put(t); err != nil {
			return written, err
		}
		written = append(written, m)
	}
	return written, nil
}

package coeffs

import (
	"context"
	"fmt"
	"log"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache keeps at most Size month tables resident and collapses concurrent
// loads of the same month into one call to the backing Provider.
type Cache struct {
	src    Provider
	tables *lru.Cache[int, *Table]
	group  singleflight.Group
	logger *log.Logger
}

// NewCache wraps src. size is clamped to 1..12.
func NewCache(src Provider, size int, logger *log.Logger) (*Cache, error) {
	if src == nil {
		return nil, fmt.Errorf("coeffs: cache needs a provider")
	}
	if size < 1 {
		size = 1
	}
	if size > 12 {
		size = 12
	}
	tables, err := lru.New[int, *Table](size)
	if err != nil {
		return nil, fmt.Errorf("coeffs: cache: %w", err)
	}
	return &Cache{src: src, tables: tables, logger: logger}, nil
}

func (c *Cache) LoadMonth(ctx context.Context, month int) (*Table, error) {
	if t, ok := c.tables.Get(month); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(strconv.Itoa(month), func() (interface{}, error) {
		if t, ok := c.tables.Get(month); ok {
			return t, nil
		}
		t, err := c.src.LoadMonth(ctx, month)
		if err != nil {
			return nil, err
		}
		c.tables.Add(month, t)
		if c.logger != nil {
			c.logger.Printf("coeffs: loaded month %02d", month)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Len reports how many months are resident.
func (c *Cache) Len() int {
	return c.tables.Len()
}

package mapfile

import (
	"io"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/yehan2002/errors"
)

const (
	// indexEntriesPerBlock the number of index entries that are read and cached together.
	indexEntriesPerBlock = 128
	indexBlockSize       = indexEntriesPerBlock * indexEntrySize

	// bitmaskIndexWater the bit of an index entry that marks a water tile.
	bitmaskIndexWater = 0x8000000000
	// bitmaskIndexOffset the bits of an index entry containing the block offset.
	bitmaskIndexOffset = 0x7FFFFFFFFF
)

type indexCacheKey struct {
	subFile int
	block   int64
}

// indexCache caches blocks of index entries.
// This is not safe for concurrent use.
type indexCache struct {
	r   io.ReaderAt
	lru *simplelru.LRU
}

func newIndexCache(r io.ReaderAt, size int) (*indexCache, error) {
	lru, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, err
	}
	return &indexCache{r: r, lru: lru}, nil
}

// entry returns the index entry for the given block of the sub-file.
func (c *indexCache) entry(sf *SubFileParameters, block int64) (uint64, error) {
	if block < 0 || block >= sf.NumberOfBlocks {
		return 0, errors.CauseStr(ErrInvalidFile, "index: invalid block number")
	}

	indexBlock := block / indexEntriesPerBlock
	key := indexCacheKey{subFile: sf.id, block: indexBlock}

	var data []byte
	if v, ok := c.lru.Get(key); ok {
		data = v.([]byte)
	} else {
		start := sf.IndexStartAddress + indexBlock*indexBlockSize
		size := sf.IndexEndAddress - start
		if size > indexBlockSize {
			size = indexBlockSize
		}

		data = make([]byte, size)
		if n, err := c.r.ReadAt(data, start); n != len(data) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return 0, errors.Wrap("mapfile: unable to read index", err)
		}
		c.lru.Add(key, data)
	}

	offset := (block % indexEntriesPerBlock) * indexEntrySize
	if offset+indexEntrySize > int64(len(data)) {
		return 0, errors.CauseStr(ErrInvalidFile, "index: entry outside index block")
	}

	var v uint64
	for _, b := range data[offset : offset+indexEntrySize] {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (c *indexCache) purge() { c.lru.Purge() }

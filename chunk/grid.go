package chunk

import (
	"strconv"
	"strings"
)

// Projection maps one chunk of the grid onto a region request. Count
// elements per dimension are copied between ChunkOffset inside the chunk and
// OutOffset inside the caller's region.
type Projection struct {
	Coords      []int
	ChunkOffset []int
	OutOffset   []int
	Count       []int
}

// Key returns the storage key of the chunk, e.g. "0,3".
func (p *Projection) Key() string {
	return Key(p.Coords)
}

// Key formats chunk grid coordinates.
func Key(coords []int) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// Projections lists every chunk intersecting the region [start, start+count)
// in C order of chunk coordinates.
func Projections(chunkShape, start, count []int) []Projection {
	ndim := len(chunkShape)
	if ndim == 0 {
		return []Projection{{Coords: []int{}, ChunkOffset: []int{}, OutOffset: []int{}, Count: []int{}}}
	}
	first := make([]int, ndim)
	last := make([]int, ndim)
	for i := range chunkShape {
		if count[i] == 0 {
			return nil
		}
		first[i] = start[i] / chunkShape[i]
		last[i] = (start[i] + count[i] - 1) / chunkShape[i]
	}
	var ret []Projection
	coords := append([]int(nil), first...)
	for {
		p := Projection{
			Coords:      append([]int(nil), coords...),
			ChunkOffset: make([]int, ndim),
			OutOffset:   make([]int, ndim),
			Count:       make([]int, ndim),
		}
		for i, c := range coords {
			chunkStart := c * chunkShape[i]
			lo := max(start[i], chunkStart)
			hi := min(start[i]+count[i], chunkStart+chunkShape[i])
			p.ChunkOffset[i] = lo - chunkStart
			p.OutOffset[i] = lo - start[i]
			p.Count[i] = hi - lo
		}
		ret = append(ret, p)
		i := ndim - 1
		for ; i >= 0; i-- {
			coords[i]++
			if coords[i] <= last[i] {
				break
			}
			coords[i] = first[i]
		}
		if i < 0 {
			return ret
		}
	}
}

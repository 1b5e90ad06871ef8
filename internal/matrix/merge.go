package matrix

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// Delta is a partial matrix keyed by block field path. Unknown field paths
// are ignored during Apply.
type Delta struct {
	Blocks map[string]Block
}

// NewDelta returns an empty delta ready for Set
func NewDelta() Delta {
	return Delta{Blocks: make(map[string]Block)}
}

// Set records the block contribution for a field path
func (d *Delta) Set(field string, block Block) {
	if d.Blocks == nil {
		d.Blocks = make(map[string]Block)
	}
	d.Blocks[field] = block
}

// Fields returns the contributed field paths in sorted order so folds are
// deterministic regardless of map iteration
func (d Delta) Fields() []string {
	fields := make([]string, 0, len(d.Blocks))
	for field := range d.Blocks {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// itemKey is the idempotency key for merge de-duplication: merging the same
// fragment under the same label twice must not duplicate the item.
func itemKey(it Item) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s", it.Item, it.Description)
	return h.Sum64()
}

// MergeBlock folds src into dst. Items are append-only and de-duplicated by
// idempotency key; a non-empty src description or source overwrites dst's;
// clarity takes the maximum of both sides so it never decreases.
func MergeBlock(dst *Block, src Block) {
	if len(src.Items) > 0 {
		seen := make(map[uint64]bool, len(dst.Items))
		for _, it := range dst.Items {
			seen[itemKey(it)] = true
		}
		for _, it := range src.Items {
			key := itemKey(it)
			if seen[key] {
				continue
			}
			seen[key] = true
			dst.Items = append(dst.Items, it)
		}
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Source != "" {
		dst.Source = src.Source
	}
	if src.ClarityLevel > dst.ClarityLevel {
		dst.ClarityLevel = src.ClarityLevel
	}
}

// Apply folds a delta into a copy of the matrix and returns the copy. The
// receiver is never mutated.
func (m StrategicMatrix) Apply(delta Delta) StrategicMatrix {
	out := m.Clone()
	for _, field := range delta.Fields() {
		ref, ok := out.blockRef(field)
		if !ok {
			continue
		}
		MergeBlock(ref, delta.Blocks[field])
	}
	return out
}

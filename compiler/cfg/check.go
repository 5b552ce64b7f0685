package cfg

import (
	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/set"
)

// Check validates block graph invariants:
// every target is a block index and the last block halts.
// It returns the set of blocks reachable from the entry.
func Check(blocks []Block) (reach set.Bitmap, err error) {
	if len(blocks) == 0 {
		return reach, errors.New("no blocks")
	}

	if _, ok := blocks[len(blocks)-1].Term.(Halt); !ok {
		return reach, errors.New("last block doesn't halt: %T", blocks[len(blocks)-1].Term)
	}

	for i, b := range blocks {
		for _, t := range Succs(blocks, i) {
			if t < 0 || t >= len(blocks) {
				return reach, errors.New("block %d: target %d out of range", i, t)
			}
		}

		if _, ok := b.Term.(Halt); ok && i != len(blocks)-1 {
			return reach, errors.New("block %d: halt before the last block", i)
		}
	}

	reach = set.MakeBitmap(len(blocks))
	q := []int{0}
	reach.Set(0)

	for len(q) != 0 {
		i := q[len(q)-1]
		q = q[:len(q)-1]

		for _, t := range Succs(blocks, i) {
			if reach.IsSet(t) {
				continue
			}

			reach.Set(t)
			q = append(q, t)
		}
	}

	return reach, nil
}

// Succs returns successors of block i in the order: branch target, then fall through.
func Succs(blocks []Block, i int) []int {
	switch t := blocks[i].Term.(type) {
	case nil:
		return []int{i + 1}
	case If:
		return []int{t.Target, i + 1}
	case Goto:
		return []int{t.Target}
	case Halt:
		return nil
	default:
		panic(errors.New("unsupported terminator: %T", t))
	}
}

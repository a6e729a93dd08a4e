// Demo program: builds an index over two thousand integer keys,
// exercises insert/get/range/delete, and reports structural stats.
// Run: go run ./cmd/demo
package main

import (
	"cmp"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"bwtree"
	"bwtree/node"
	"bwtree/reclaim"
)

func main() {
	reclaimer, err := reclaim.NewEpochReclaimer[int, string](1 << 12)
	if err != nil {
		log.Fatalf("new reclaimer: %v", err)
	}

	cfg := bwtree.Config[int, string]{
		TableSize:           1 << 16,
		SplitThreshold:      64,
		MergeThreshold:      16,
		ChainThreshold:      8,
		Cmp:                 cmp.Compare[int],
		Reclaimer:           reclaimer,
		ReclaimWorkers:      2,
		ReclaimAdvanceEvery: 64,
	}

	ix, err := bwtree.New(cfg)
	if err != nil {
		log.Fatalf("new index: %v", err)
	}
	defer func() {
		if err := ix.Destroy(); err != nil {
			log.Fatalf("destroy: %v", err)
		}
	}()

	const n = 2000
	for i := range n {
		key := (i * 7919) % n // scatter the insertion order
		ok, err := ix.Insert(key, fmt.Sprintf("value-%d", key))
		if err != nil {
			log.Fatalf("insert %d: %v", key, err)
		}
		if !ok {
			log.Fatalf("insert %d: unexpected duplicate", key)
		}
	}

	fmt.Println("after inserting", n, "keys:", ix.Stats())

	if v, found, err := ix.Get(42); err != nil {
		log.Fatalf("get 42: %v", err)
	} else if !found {
		log.Fatalf("get 42: expected present")
	} else {
		fmt.Println("get(42) =", v)
	}

	fmt.Println("\n--- range [100, 110) ---")
	for k, v := range ix.Range(100, node.FiniteKey(110)) {
		fmt.Printf("  %d -> %s\n", k, v)
	}

	for i := 0; i < n; i += 2 {
		if _, err := deleteChecked(ix, i); err != nil {
			log.Fatalf("delete %d: %v", i, err)
		}
	}

	fmt.Println("\nafter deleting every even key:", ix.Stats())

	if _, found, err := ix.Get(0); err != nil {
		log.Fatalf("get 0: %v", err)
	} else if found {
		log.Fatalf("get 0: expected absent after delete")
	}
}

func deleteChecked(ix *bwtree.Index[int, string], key int) (bool, error) {
	ok, err := ix.Delete(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errors.Errorf("delete %d: unexpected not-found", key)
	}
	return true, nil
}

package augment

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// SelectKnown reveals a class-stratified random subset of ceil(perc * n)
// samples. The budget is spread across classes in proportion to their size
// using largest remainders (ties go to the lower class id), so with fewer
// known samples than classes some classes legitimately receive none.
func SelectKnown(rng *rand.Rand, labels []int, numClasses int, perc float64) ([]bool, error) {
	if perc <= 0 || perc >= 1 {
		return nil, fmt.Errorf("%w: labeled fraction must be in (0,1), got %v", ErrInvalidParams, perc)
	}
	n := len(labels)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty training set", ErrInvalidParams)
	}

	byClass := make([][]int, numClasses)
	for i, l := range labels {
		if l < 0 || l >= numClasses {
			return nil, fmt.Errorf("%w: label %d outside [0,%d)", ErrDimension, l, numClasses)
		}
		byClass[l] = append(byClass[l], i)
	}

	total := int(math.Ceil(perc*float64(n) - 1e-9))
	quota := make([]int, numClasses)
	type rem struct {
		class int
		frac  float64
	}
	rems := make([]rem, 0, numClasses)
	assigned := 0
	for c, rows := range byClass {
		exact := float64(total) * float64(len(rows)) / float64(n)
		quota[c] = int(math.Floor(exact))
		assigned += quota[c]
		rems = append(rems, rem{class: c, frac: exact - float64(quota[c])})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < total && i < len(rems); i++ {
		c := rems[i].class
		if quota[c] < len(byClass[c]) {
			quota[c]++
			assigned++
		}
	}

	known := make([]bool, n)
	for c, rows := range byClass {
		pick := append([]int(nil), rows...)
		rng.Shuffle(len(pick), func(i, j int) { pick[i], pick[j] = pick[j], pick[i] })
		for _, i := range pick[:quota[c]] {
			known[i] = true
		}
	}
	return known, nil
}

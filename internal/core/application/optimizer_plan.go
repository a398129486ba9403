package application

import (
	"math"
	"sort"
)

// swapPlan is one planned optimization round: the leaf values to give up
// and the denominations to receive in exchange. Both sides always sum to
// the same amount.
type swapPlan struct {
	toGive    []uint64
	toReceive []uint64
}

// planOptimizationSwaps computes the rounds needed to move the given
// leaf set toward its optimal shape. An empty plan means the leaves are
// already optimal.
func planOptimizationSwaps(
	values []uint64, config OptimizationConfig,
) []swapPlan {
	if config.Multiplicity == 0 {
		return maximizeUnilateralExit(values, int(config.MaxLeavesPerSwap))
	}
	return minimizeTransferSwaps(
		values, config.Multiplicity, int(config.MaxLeavesPerSwap),
	)
}

// needsOptimization is the heuristic used by the automatic path. With
// multiplicity 0 optimization is worth it when it reduces the number of
// leaves by more than 5x, otherwise when the number of distinct input
// denominations differs from the distinct output ones by more than 2.
func needsOptimization(values []uint64, config OptimizationConfig) bool {
	if config.Multiplicity == 0 {
		swaps := maximizeUnilateralExit(values, int(config.MaxLeavesPerSwap))
		numInputs, numOutputs := 0, 0
		for _, swap := range swaps {
			numInputs += len(swap.toGive)
			numOutputs += len(swap.toReceive)
		}
		return numOutputs*5 < numInputs
	}

	swaps := minimizeTransferSwaps(
		values, config.Multiplicity, int(config.MaxLeavesPerSwap),
	)
	inputs, outputs := make([]uint64, 0), make([]uint64, 0)
	for _, swap := range swaps {
		inputs = append(inputs, swap.toGive...)
		outputs = append(outputs, swap.toReceive...)
	}
	delta := len(countOccurrences(inputs)) - len(countOccurrences(outputs))
	if delta < 0 {
		delta = -delta
	}
	return delta > 2
}

// maximizeUnilateralExit plans the swaps yielding the leaf set that
// maximizes the amount exitable with a single unilateral exit. Leaves are
// processed ascending in batches of up to maxPerSwap.
func maximizeUnilateralExit(values []uint64, maxPerSwap int) []swapPlan {
	leaves := append([]uint64(nil), values...)
	sort.Slice(leaves, func(i, j int) bool { return leaves[i] < leaves[j] })

	swaps := make([]swapPlan, 0)
	batch := make([]uint64, 0)

	for len(leaves) > 0 {
		batch = append(batch, leaves[0])
		leaves = leaves[1:]
		target := greedyLeaves(sumValues(batch))

		if len(batch) >= maxPerSwap || len(target) >= maxPerSwap {
			if !equalValues(target, batch) {
				swaps = append(swaps, swapPlan{
					toGive:    append([]uint64(nil), batch...),
					toReceive: target,
				})
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		target := greedyLeaves(sumValues(batch))
		if !equalValues(target, batch) {
			swaps = append(swaps, swapPlan{
				toGive:    append([]uint64(nil), batch...),
				toReceive: target,
			})
		}
	}

	return swaps
}

// minimizeTransferSwaps plans the swaps yielding the leaf set that
// minimizes the probability of needing a swap during a transfer. The
// giving and receiving sides are balanced into value-matched batches,
// chunked to respect maxPerSwap.
func minimizeTransferSwaps(
	values []uint64, multiplicity uint32, maxPerSwap int,
) []swapPlan {
	optimal := swapMinimizingLeaves(sumValues(values), multiplicity)

	walletCounter := countOccurrences(values)
	optimalCounter := countOccurrences(optimal)
	give := counterToSortedValues(subtractCounters(walletCounter, optimalCounter))
	receive := counterToSortedValues(subtractCounters(optimalCounter, walletCounter))

	swaps := make([]swapPlan, 0)
	toGive := make([]uint64, 0)
	toReceive := make([]uint64, 0)

	for len(give) > 0 || len(receive) > 0 {
		if sumValues(toGive) > sumValues(toReceive) {
			if len(receive) == 0 {
				break
			}
			toReceive = append(toReceive, receive[0])
			receive = receive[1:]
		} else {
			if len(give) == 0 {
				break
			}
			toGive = append(toGive, give[0])
			give = give[1:]
		}

		giveSum, receiveSum := sumValues(toGive), sumValues(toReceive)
		if len(toGive) == 0 || len(toReceive) == 0 || giveSum != receiveSum {
			continue
		}

		switch {
		case len(toGive) > maxPerSwap:
			for start := 0; start < len(toGive); start += maxPerSwap {
				end := start + maxPerSwap
				if end > len(toGive) {
					end = len(toGive)
				}
				chunk := append([]uint64(nil), toGive[start:end]...)
				swaps = append(swaps, swapPlan{
					toGive:    chunk,
					toReceive: greedyLeaves(sumValues(chunk)),
				})
			}
		case len(toReceive) > maxPerSwap:
			for cutoff := maxPerSwap; cutoff >= 1; cutoff-- {
				sumCut := sumValues(toReceive[:cutoff])
				if sumCut > giveSum {
					continue
				}
				alternate := append(
					[]uint64(nil), toReceive[:cutoff]...,
				)
				alternate = append(alternate, greedyLeaves(giveSum-sumCut)...)
				if len(alternate) <= maxPerSwap {
					swaps = append(swaps, swapPlan{
						toGive:    append([]uint64(nil), toGive...),
						toReceive: alternate,
					})
					break
				}
			}
		default:
			swaps = append(swaps, swapPlan{
				toGive:    append([]uint64(nil), toGive...),
				toReceive: append([]uint64(nil), toReceive...),
			})
		}

		toGive = toGive[:0]
		toReceive = toReceive[:0]
	}

	return swaps
}

// swapMinimizingLeaves generates the optimal denominations for a balance:
// up to multiplicity copies of every power of two, smallest first, with
// any remainder decomposed greedily.
func swapMinimizingLeaves(amount uint64, multiplicity uint32) []uint64 {
	result := make([]uint64, 0)
	remaining := amount

	for power := uint64(1); power <= amount; {
		for i := uint32(0); i < multiplicity; i++ {
			if remaining >= power {
				remaining -= power
				result = append(result, power)
			}
		}
		if power > math.MaxUint64/2 {
			break
		}
		power *= 2
	}

	result = append(result, greedyLeaves(remaining)...)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// greedyLeaves breaks a value down into power-of-two denominations,
// returned ascending.
func greedyLeaves(value uint64) []uint64 {
	result := make([]uint64, 0)
	for power := uint64(1) << 63; value > 0 && power > 0; power >>= 1 {
		for value >= power {
			result = append(result, power)
			value -= power
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func countOccurrences(values []uint64) map[uint64]int {
	counter := make(map[uint64]int)
	for _, v := range values {
		counter[v]++
	}
	return counter
}

func subtractCounters(a, b map[uint64]int) map[uint64]int {
	result := make(map[uint64]int)
	for value, count := range a {
		if count > b[value] {
			result[value] = count - b[value]
		}
	}
	return result
}

func counterToSortedValues(counter map[uint64]int) []uint64 {
	keys := make([]uint64, 0, len(counter))
	for value := range counter {
		keys = append(keys, value)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	result := make([]uint64, 0)
	for _, value := range keys {
		for i := 0; i < counter[value]; i++ {
			result = append(result, value)
		}
	}
	return result
}

func sumValues(values []uint64) uint64 {
	sum := uint64(0)
	for _, v := range values {
		sum += v
	}
	return sum
}

func equalValues(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

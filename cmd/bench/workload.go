package main

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/agilira/go-errors"
)

const errCodeUnknownWorkload errors.ErrorCode = "KVCACHE_BENCH_UNKNOWN_WORKLOAD"

// workload describes one hit-rate scenario over integer keys.
type workload struct {
	name string
	// warm runs single-threaded before the measured phase.
	warm func(r *rand.Rand, put func(k int))
	// keys returns a per-worker key generator. op counts from 0 to total-1
	// within the worker's share of the measured operations.
	keys func(r *rand.Rand) func(op, total int) int
	// fillOnMiss stores the key after a missed Get (read-through usage).
	fillOnMiss bool
}

type workloadConfig struct {
	ops      int
	hotKeys  int
	coldKeys int
	loopSize int
	phases   int
	zipfS    float64
	zipfKeys int
}

// hotCold picks a hot key for 70% of operations and a cold key otherwise.
func hotCold(r *rand.Rand, op, hot, cold int) int {
	if op%100 < 70 {
		return r.Intn(hot)
	}
	return hot + r.Intn(cold)
}

func workloads(cfg workloadConfig) map[string]workload {
	return map[string]workload{
		// A small hot set hit 70% of the time, mixed with a wide cold range.
		"hot": {
			name: "hot",
			warm: func(r *rand.Rand, put func(int)) {
				for op := 0; op < cfg.ops; op++ {
					put(hotCold(r, op, cfg.hotKeys, cfg.coldKeys))
				}
			},
			keys: func(r *rand.Rand) func(int, int) int {
				return func(op, _ int) int { return hotCold(r, op, cfg.hotKeys, cfg.coldKeys) }
			},
		},
		// A sequential scan over a loop larger than the cache, with random
		// in-loop reads and a few out-of-range keys.
		"loop": {
			name: "loop",
			warm: func(_ *rand.Rand, put func(int)) {
				for k := 0; k < cfg.loopSize; k++ {
					put(k)
				}
			},
			keys: func(r *rand.Rand) func(int, int) int {
				pos := 0
				return func(op, _ int) int {
					switch {
					case op%100 < 60:
						k := pos
						pos = (pos + 1) % cfg.loopSize
						return k
					case op%100 < 90:
						return r.Intn(cfg.loopSize)
					default:
						return cfg.loopSize + r.Intn(cfg.loopSize)
					}
				}
			},
		},
		// The hot set moves to a disjoint key range in every phase; policies
		// must forget the previous phase to keep hitting.
		"shift": {
			name: "shift",
			warm: func(*rand.Rand, func(int)) {},
			keys: func(r *rand.Rand) func(int, int) int {
				span := cfg.hotKeys + cfg.coldKeys
				return func(op, total int) int {
					phase := op * cfg.phases / max(total, 1)
					return phase*span + hotCold(r, op, cfg.hotKeys, cfg.coldKeys)
				}
			},
			fillOnMiss: true,
		},
		// Zipf-distributed popularity over a large keyspace.
		"zipf": {
			name: "zipf",
			warm: func(*rand.Rand, func(int)) {},
			keys: func(r *rand.Rand) func(int, int) int {
				z := rand.NewZipf(r, cfg.zipfS, 1, uint64(cfg.zipfKeys-1))
				return func(int, int) int { return int(z.Uint64()) }
			},
			fillOnMiss: true,
		},
	}
}

// selectWorkloads resolves a comma-separated list; "all" selects every workload.
func selectWorkloads(list string, all map[string]workload) ([]workload, error) {
	if list == "all" {
		names := make([]string, 0, len(all))
		for n := range all {
			names = append(names, n)
		}
		sort.Strings(names)
		list = strings.Join(names, ",")
	}
	var out []workload
	for _, n := range strings.Split(list, ",") {
		w, ok := all[strings.TrimSpace(n)]
		if !ok {
			return nil, errors.NewWithContext(errCodeUnknownWorkload, "unknown workload", map[string]interface{}{
				"workload": n,
			})
		}
		out = append(out, w)
	}
	return out, nil
}

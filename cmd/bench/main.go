// Command bench compares the hit rate of the eviction policies on synthetic
// access patterns (hot set, loop scan, workload shift, zipf) and exposes
// optional pprof/Prometheus endpoints while it runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pmet "github.com/IvanBrykalov/kvcache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		policies = flag.String("policy", "lru,lruk,lfu", "comma-separated policies: lru | lruk | lfu")
		workloadList   = flag.String("workload", "all", "comma-separated workloads: hot | loop | shift | zipf | all")

		capacity = flag.Int("cap", 50, "cache capacity (entries)")
		shards   = flag.Int("shards", 0, "number of shards (0 = a single unsharded instance)")
		k        = flag.Int("k", 2, "LRU-K promotion threshold")
		history  = flag.Int("history", 0, "LRU-K history capacity (0 = 2*cap)")
		maxAvg   = flag.Int("max_avg_freq", 10, "LFU aging ceiling for the average frequency")

		ops      = flag.Int("ops", 500_000, "measured Get operations per run")
		workers  = flag.Int("workers", 1, "number of worker goroutines")
		hot      = flag.Int("hot", 20, "hot keys (hot, shift)")
		cold     = flag.Int("cold", 5_000, "cold keys (hot, shift)")
		loop     = flag.Int("loop", 500, "loop length (loop)")
		phases   = flag.Int("phases", 4, "hot-set shifts (shift)")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfKeys = flag.Int("zipf_keys", 100_000, "Zipf keyspace size")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
	)
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if *zipfS <= 1 || *zipfKeys < 2 || *loop < 1 || *hot < 1 || *cold < 1 || *phases < 1 {
		fmt.Fprintf(os.Stderr, "error: zipf_s must be > 1, zipf_keys >= 2, loop/hot/cold/phases >= 1\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		level.Info(logger).Log("msg", "received shutdown signal")
		cancel()
	}()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			level.Info(logger).Log("msg", "serving pprof", "addr", *pprofAddr)
			level.Error(logger).Log("msg", "pprof server stopped", "err", http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (one adapter per policy/workload run) ----
	reg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			level.Info(logger).Log("msg", "serving metrics", "addr", *metricsAddr)
			level.Error(logger).Log("msg", "metrics server stopped", "err", http.ListenAndServe(*metricsAddr, mux))
		}()
	}

	wls, err := selectWorkloads(*workloadList, workloads(workloadConfig{
		ops:      *ops,
		hotKeys:  *hot,
		coldKeys: *cold,
		loopSize: *loop,
		phases:   *phases,
		zipfS:    *zipfS,
		zipfKeys: *zipfKeys,
	}))
	if err != nil {
		level.Error(logger).Log("msg", "invalid workload", "err", err)
		os.Exit(1)
	}

	cfg := cacheConfig{
		capacity: *capacity,
		shards:   *shards,
		k:        *k,
		history:  *history,
		maxAvg:   *maxAvg,
	}
	level.Info(logger).Log("msg", "starting", "policies", *policies, "workloads", *workloadList,
		"cap", cfg.capacity, "shards", cfg.shards, "ops", *ops, "workers", *workers,
		"seed", *seed, "gomaxprocs", runtime.GOMAXPROCS(0))

	var results []result
	for _, w := range wls {
		for _, name := range strings.Split(*policies, ",") {
			name = strings.TrimSpace(name)
			m := pmet.New(reg, "kvcache", "bench", prometheus.Labels{"policy": name, "workload": w.name})
			c, err := newCache(name, cfg, m, logger)
			if err != nil {
				level.Error(logger).Log("msg", "failed to build cache", "policy", name, "err", err)
				os.Exit(1)
			}
			res, err := run(ctx, c, w, *ops, *workers, *seed)
			if err != nil {
				level.Warn(logger).Log("msg", "run interrupted", "policy", name, "workload", w.name, "err", err)
				printResults(results)
				return
			}
			res.policy = name
			level.Debug(logger).Log("msg", "run finished", "policy", name, "workload", w.name, "elapsed", res.elapsed)
			results = append(results, res)
		}
	}
	printResults(results)
}

func printResults(results []result) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKLOAD\tPOLICY\tGETS\tHITS\tHIT-RATE\tELAPSED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f%%\t%v\n",
			r.workload, r.policy, r.gets, r.hits, r.hitRate(), r.elapsed.Round(time.Millisecond))
	}
	_ = tw.Flush()
}

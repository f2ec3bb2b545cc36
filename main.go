// Program dxanalyzer collects DX spots from either a telnet cluster feed
// or scraped cluster web pages, classifies and deduplicates them, and
// records the survivors to SQLite plus periodic CSV aggregate snapshots.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dxanalyzer/bandplan"
	"dxanalyzer/budget"
	"dxanalyzer/cluster"
	"dxanalyzer/config"
	"dxanalyzer/pipeline"
	"dxanalyzer/recorder"
	"dxanalyzer/spot"
	"dxanalyzer/web"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (optional)")
	bandsPath := flag.String("bands", "", "path to band rules CSV (overrides config)")
	outputDir := flag.String("output", "", "output directory (overrides config)")
	callsign := flag.String("callsign", "", "login identity (overrides config)")
	clusterAddr := flag.String("cluster", "", "primary cluster host:port (overrides config)")
	webMode := flag.Bool("web", false, "poll web sources instead of the cluster feed")
	maxHours := flag.Int("maxhours", 0, "wall-clock budget in hours (overrides config)")
	maxSizeGB := flag.Int("maxsize", 0, "output size budget in GB (overrides config)")
	flag.Parse()

	cfg := loadConfig(*configPath)
	applyOverrides(cfg, *bandsPath, *outputDir, *callsign, *clusterAddr, *maxHours, *maxSizeGB)
	cfg.Print()

	rules, err := bandplan.LoadRules(cfg.Output.BandRules)
	if err != nil {
		log.Fatalf("Band rules: %v", err)
	}
	classifier := bandplan.NewClassifier(rules)

	sink, err := recorder.New(cfg.Output.Dir)
	if err != nil {
		log.Fatalf("Recorder: %v", err)
	}
	defer sink.Close()

	pipe := pipeline.NewWithWindows(classifier, sink,
		time.Duration(cfg.Dedup.WindowSeconds)*time.Second,
		time.Duration(cfg.Dedup.ExpirySeconds)*time.Second)
	oracle := budget.New(cfg.Output.Dir, cfg.MaxDuration(), cfg.MaxSizeBytes())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var spots <-chan spot.Raw
	if *webMode {
		poller := web.NewPoller(webSources(cfg), cfg.PollInterval())
		go poller.Run(ctx)
		spots = poller.Spots()
	} else {
		client := cluster.NewClient(clusterEndpoints(cfg), cfg.Identity.Callsign)
		go client.Run(ctx)
		spots = client.Spots()
	}

	run(ctx, cancel, spots, pipe, oracle)

	if err := pipe.Close(); err != nil {
		log.Printf("Final snapshot failed: %v", err)
	}
	stats := pipe.Stats()
	log.Printf("Done after %s: %d received, %d admitted",
		oracle.Elapsed().Round(time.Second), stats.Received, stats.Admitted)
}

// run pumps spots into the pipeline until the source closes, the budget
// trips, or a signal cancels the context.
func run(ctx context.Context, cancel context.CancelFunc, spots <-chan spot.Raw,
	pipe *pipeline.Pipeline, oracle *budget.Oracle) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case raw, ok := <-spots:
			if !ok {
				return
			}
			pipe.Ingest(raw)
		case <-ticker.C:
			if oracle.Exceeded() {
				log.Printf("Budget exceeded, shutting down")
				cancel()
			}
		case <-ctx.Done():
			// Drain whatever the acquisition goroutine already queued.
			for raw := range spots {
				pipe.Ingest(raw)
			}
			return
		}
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	return cfg
}

func applyOverrides(cfg *config.Config, bands, output, callsign, clusterAddr string, maxHours, maxSizeGB int) {
	if bands != "" {
		cfg.Output.BandRules = bands
	}
	if output != "" {
		cfg.Output.Dir = output
	}
	if callsign != "" {
		cfg.Identity.Callsign = callsign
	}
	if clusterAddr != "" {
		host, portStr, err := net.SplitHostPort(clusterAddr)
		if err != nil {
			log.Fatalf("Invalid -cluster %q: %v", clusterAddr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Fatalf("Invalid -cluster port %q: %v", portStr, err)
		}
		cfg.Cluster.Primary = config.Endpoint{Host: host, Port: port}
	}
	if maxHours > 0 {
		cfg.Budget.MaxHours = maxHours
	}
	if maxSizeGB > 0 {
		cfg.Budget.MaxSizeGB = maxSizeGB
	}
}

func clusterEndpoints(cfg *config.Config) []cluster.Endpoint {
	var endpoints []cluster.Endpoint
	for _, e := range cfg.Endpoints() {
		endpoints = append(endpoints, cluster.Endpoint{Host: e.Host, Port: e.Port})
	}
	return endpoints
}

func webSources(cfg *config.Config) []web.Source {
	if len(cfg.Web.Sources) == 0 {
		return web.DefaultSources()
	}
	var sources []web.Source
	for _, s := range cfg.Web.Sources {
		extractor, ok := web.ExtractorByName(s.Extractor)
		if !ok {
			log.Fatalf("Unknown extractor %q for %s", s.Extractor, s.URL)
		}
		sources = append(sources, web.Source{URL: s.URL, Extractor: extractor})
	}
	return sources
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/compiler"
	"github.com/flowsmith/flowsmith/internal/config"
	"github.com/flowsmith/flowsmith/internal/observe"
	"github.com/flowsmith/flowsmith/internal/provider"
	"github.com/flowsmith/flowsmith/internal/trace"
	"github.com/flowsmith/flowsmith/internal/version"
)

func main() {
	configPath := flag.String("config", "flowsmith.yaml", "path to config file")
	request := flag.String("request", "", "natural-language integration request to compile")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}
	if *request == "" {
		fmt.Fprintln(os.Stderr, "usage: flowsmith -request \"...\" [-config flowsmith.yaml]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	watcher, err := catalog.NewWatcher(cfg.Catalog.ActionsPath, cfg.Catalog.ContextPath)
	if err != nil {
		log.Fatalf("loading catalogs: %v", err)
	}
	if cfg.Catalog.Watch {
		stop, err := watcher.Watch()
		if err != nil {
			log.Fatalf("watching catalogs: %v", err)
		}
		defer stop()
	}
	if cfg.Catalog.RefreshSchedule != "" {
		refresher, err := catalog.NewRefresher(watcher, cfg.Catalog.RefreshSchedule)
		if err != nil {
			log.Fatalf("scheduling catalog refresh: %v", err)
		}
		refresher.Start()
		defer refresher.Stop()
	}

	llm, err := provider.New(cfg.Model.Provider, cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.Model, cfg.Model.CallTimeout())
	if err != nil {
		log.Fatalf("model client: %v", err)
	}

	var collectors []observe.Collector
	if cfg.Trace.DataDir != "" {
		store, err := trace.Open(cfg.Trace.DataDir)
		if err != nil {
			log.Fatalf("trace store: %v", err)
		}
		defer store.Close()
		collectors = append(collectors, store)
	}
	emitter := observe.NewEmitter(collectors...)
	defer emitter.Close()

	opts := []compiler.Option{compiler.WithSink(emitter)}
	if cfg.Cache.RedisAddr != "" {
		cache := compiler.NewCache(cfg.Cache.RedisAddr, cfg.Cache.EntryTTL())
		defer cache.Close()
		opts = append(opts, compiler.WithCache(cache))
	}

	c := compiler.New(llm, cfg, opts...)
	result, err := c.Compile(context.Background(), *request, watcher.Current())
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if result.Report != nil {
		fmt.Fprintln(os.Stderr, result.Report.Explanation)
	}
}

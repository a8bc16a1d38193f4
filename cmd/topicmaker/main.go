package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	cleanupPolicy     = "delete"
	retention         = 7 * 24 * time.Hour
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	cl := createClient(cfg)
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	if err := makeTopics(sigCtx, cl, cfg.Events.Topic); err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Events.SeedBrokers...)}
	if tlsFiles := cfg.Events.TLS; tlsFiles.Enabled() {
		tlsCfg, err := adapter.MakeTLSConfig(
			tlsFiles.CAFile, tlsFiles.CertFile, tlsFiles.KeyFile,
		)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(ctx context.Context, cl *kadm.Client, topics ...string) error {
	var (
		policy      = cleanupPolicy
		minISR      = "2"
		retentionMs = fmt.Sprint(retention.Milliseconds())
	)

	config := map[string]*string{
		"cleanup.policy":      &policy,
		"min.insync.replicas": &minISR,
		"retention.ms":        &retentionMs,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	fmt.Printf("initializing topics...\n\t- %q\n\n", cfg.Events.Topic)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

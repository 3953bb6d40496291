package main

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/kbukum/readflow/config"
	"github.com/kbukum/readflow/duplex"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
	"github.com/kbukum/readflow/readio"
	"github.com/kbukum/readflow/subread"
)

// flow is the duplex calling graph:
//
//	ingest ─┬─> duplex-encoder ─> subread-reassembler ─> parent-tagger ─> writer
//	        └──────────────────────────^
//
// Every input read reaches the reassembler directly, so simplex output does
// not depend on pairing success.
type flow struct {
	graph     *pipeline.Graph
	ingest    pipeline.Handle
	pairs     *read.PairTable
	pairsOnly bool
}

func buildFlow(cfg config.PipelineConfig, pairs *read.PairTable, out pipeline.Worker, log *logger.Logger) (*flow, error) {
	policy, err := cfg.IncompletePolicy()
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs, _ = read.NewPairTable(nil)
	}

	g := pipeline.NewGraph(pipeline.WithLogger(log))
	node := func(name string, body pipeline.Worker, workers int) pipeline.NodeSpec {
		return pipeline.NodeSpec{Name: name, Worker: body, Workers: workers, Capacity: cfg.QueueCapacity}
	}

	writer, err := g.AddNode(node(readio.WriterNodeName, out, cfg.WriterWorkers))
	if err != nil {
		return nil, err
	}
	tagger, err := g.AddNode(node(duplex.TaggerNodeName,
		duplex.NewParentTagger(log.WithComponent(duplex.TaggerNodeName)), cfg.TaggerWorkers), writer)
	if err != nil {
		return nil, err
	}
	reassembler, err := g.AddNode(node(subread.NodeName,
		subread.NewReassembler(policy, log.WithComponent(subread.NodeName)), cfg.ReassemblerWorkers), tagger)
	if err != nil {
		return nil, err
	}
	encoder, err := g.AddNode(node(duplex.EncoderNodeName,
		duplex.NewPairingEncoder(pairs, cfg.Encoder, log.WithComponent(duplex.EncoderNodeName)), cfg.EncoderWorkers), reassembler)
	if err != nil {
		return nil, err
	}

	spec := node(readio.IngestNodeName, readio.NewIngest(pairs, !cfg.ExplicitCandidates), 1)
	spec.Source = true
	ingest, err := g.AddNode(spec, encoder, reassembler)
	if err != nil {
		return nil, err
	}

	return &flow{graph: g, ingest: ingest, pairs: pairs, pairsOnly: cfg.PairsOnly}, nil
}

// feed pushes every read of in into the graph and then stops it, waiting
// for the cascade to reach the writer. It returns the number of reads fed.
func (f *flow) feed(ctx context.Context, in pipeline.Iterator[*read.Read]) (int, error) {
	if f.pairsOnly {
		in = readio.PairedOnly(in, f.pairs)
	}
	n, feedErr := pipeline.Feed(ctx, f.graph, f.ingest, in)

	// Stop must wait for the drain even when ctx is canceled; the workers
	// observe the cancellation themselves.
	stopErr := f.graph.Stop(context.WithoutCancel(ctx))
	return n, multierr.Append(feedErr, stopErr)
}

// reportProgress logs a per-node snapshot every interval until done closes
// or ctx is canceled.
func reportProgress(ctx context.Context, done <-chan struct{}, g *pipeline.Graph, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range g.Stats() {
				log.Info("progress", logger.Fields(
					logger.FieldNode, s.Name,
					logger.FieldState, s.State,
					"queue_depth", s.QueueDepth,
					"processed", s.Processed,
					"emitted", s.Emitted,
				))
			}
		}
	}
}

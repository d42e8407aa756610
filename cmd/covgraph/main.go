// covgraph consumes result events and maintains a coverage graph in Neo4j:
// one Entry node per retained corpus file, one Edge node per coverage edge,
// and a COVERS relation between them. The graph makes questions like "which
// corpus files are the sole witnesses of an edge" a single Cypher query.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/segmentio/kafka-go"

	"common-corpus/common"
	"common-corpus/internal/events"
	"common-corpus/internal/graph"
	"common-corpus/internal/models"
)

type graphWriter struct {
	driver graph.DriverSessioner
}

var (
	// Counters for covgraph throughput and failures exposed on /metrics.
	// received: messages fetched from Kafka; skipped: events without new
	// coverage; failed: write errors against Neo4j.
	covgraphResultsReceived uint64
	covgraphResultsSkipped  uint64
	covgraphResultsFailed   uint64
	covgraphResultsWritten  uint64
	covgraphEdgesWritten    uint64
)

type neo4jDriver struct {
	driver neo4j.DriverWithContext
}

func (d *neo4jDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) graph.SessionRunner {
	return d.driver.NewSession(ctx, config)
}

func (d *neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	resultsTopic := common.GetEnv("KAFKA_RESULTS_TOPIC", "common-corpus.results")
	resultsGroup := common.GetEnv("KAFKA_RESULTS_GROUP", "common-corpus-covgraph")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9091")

	neo4jURI := common.GetEnv("NEO4J_URI", "neo4j://localhost:7687")
	neo4jUser := common.GetEnv("NEO4J_USER", "neo4j")
	neo4jPassword := common.GetEnv("NEO4J_PASSWORD", "neo4j")

	driver, err := neo4j.NewDriverWithContext(neo4jURI, neo4j.BasicAuth(neo4jUser, neo4jPassword, ""))
	if err != nil {
		log.Fatalf("neo4j driver error: %v", err)
	}
	defer func() {
		if err := driver.Close(context.Background()); err != nil {
			log.Printf("neo4j close error: %v", err)
		}
	}()

	writer := &graphWriter{driver: &neo4jDriver{driver: driver}}

	resultsReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   resultsTopic,
		GroupID: resultsGroup,
	})
	defer func() {
		if err := resultsReader.Close(); err != nil {
			log.Printf("results reader close error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		startMetricsServer(ctx, metricsAddr)
	}

	go consumeResults(ctx, resultsReader, writer)

	<-ctx.Done()
}

func startMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", handleMetrics)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown error: %v", err)
		}
	}()

	go func() {
		log.Printf("metrics listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(
		"covgraph_up 1\n"+
			"covgraph_results_received_total %d\n"+
			"covgraph_results_skipped_total %d\n"+
			"covgraph_results_failed_total %d\n"+
			"covgraph_results_written_total %d\n"+
			"covgraph_edges_written_total %d\n",
		atomic.LoadUint64(&covgraphResultsReceived),
		atomic.LoadUint64(&covgraphResultsSkipped),
		atomic.LoadUint64(&covgraphResultsFailed),
		atomic.LoadUint64(&covgraphResultsWritten),
		atomic.LoadUint64(&covgraphEdgesWritten),
	)
	_, _ = w.Write([]byte(body))
}

func consumeResults(ctx context.Context, reader events.MessageReader, writer *graphWriter) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("results fetch error: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		atomic.AddUint64(&covgraphResultsReceived, 1)
		written, edges, err := writer.writeResult(ctx, msg.Value)
		if err != nil {
			atomic.AddUint64(&covgraphResultsFailed, 1)
			log.Printf("results write error: %v", err)
			continue
		}
		if written {
			atomic.AddUint64(&covgraphResultsWritten, 1)
			atomic.AddUint64(&covgraphEdgesWritten, uint64(edges))
		} else {
			atomic.AddUint64(&covgraphResultsSkipped, 1)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("results commit error: %v", err)
		}
	}
}

// writeResult merges one retained corpus entry and its covered edges into the
// graph. Events without new coverage carry no corpus id and are skipped.
func (w *graphWriter) writeResult(ctx context.Context, payload []byte) (written bool, edges int, err error) {
	var result models.ResultEvent
	if err := json.Unmarshal(payload, &result); err != nil {
		return false, 0, err
	}
	if result.Outcome != models.OutcomeNew || result.CorpusID == nil {
		return false, 0, nil
	}

	query, params := buildEntryQuery(result)
	if err := w.runWrite(ctx, query, params); err != nil {
		return false, 0, err
	}
	return true, len(result.Edges), nil
}

func (w *graphWriter) runWrite(ctx context.Context, query string, params map[string]any) error {
	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(ctx); err != nil {
			log.Printf("neo4j session close error: %v", err)
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

// buildEntryQuery writes the entry node and all of its COVERS relations in
// one transaction, so a crash never leaves an entry with half its edges.
func buildEntryQuery(result models.ResultEvent) (string, map[string]any) {
	query := "MERGE (e:Entry {id: $id}) " +
		"SET e.position = $position, " +
		"e.source_url = $source_url, " +
		"e.archive_file = $archive_file, " +
		"e.new_edges = $new_edges, " +
		"e.tested_at = $tested_at " +
		"WITH e UNWIND $edges AS edgeID " +
		"MERGE (c:Edge {id: edgeID}) " +
		"MERGE (e)-[:COVERS]->(c)"

	edgeIDs := make([]any, len(result.Edges))
	for i, e := range result.Edges {
		// Neo4j integers are signed 64-bit; edge PCs survive the round
		// trip through int64 reinterpretation.
		edgeIDs[i] = int64(e)
	}
	params := map[string]any{
		"id":           int64(*result.CorpusID),
		"position":     int64(result.Position),
		"source_url":   result.SourceURL,
		"archive_file": result.ArchiveFile,
		"new_edges":    result.NewEdges,
		"tested_at":    result.TestedAt.UTC().Format(time.RFC3339),
		"edges":        edgeIDs,
	}
	return query, params
}

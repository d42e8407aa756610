// kafka-check verifies that the result-event broker is reachable and that
// the results topic exists before a long corpus run is kicked off.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"common-corpus/common"
)

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topic := common.GetEnv("KAFKA_RESULTS_TOPIC", "common-corpus.results")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Kafka at %s: %v\n", broker, err)
		os.Exit(1)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read metadata for topic %s: %v\n", topic, err)
		os.Exit(1)
	}
	if len(partitions) == 0 {
		fmt.Fprintf(os.Stderr, "results topic %s does not exist on %s\n", topic, broker)
		os.Exit(1)
	}

	fmt.Printf("connected to Kafka at %s, topic %s has %d partition(s)\n", broker, topic, len(partitions))
}

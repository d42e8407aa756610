package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	kgo "github.com/segmentio/kafka-go"

	"common-corpus/internal/events"
	"common-corpus/internal/models"
	"common-corpus/mocks"
)

func TestProducerWriteResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	prod := events.NewProducerWithWriter(writer)

	id := uint64(4)
	event := models.ResultEvent{
		Position:    12,
		Outcome:     models.OutcomeNew,
		SourceURL:   "http://site.example/doc.pdf",
		ArchiveFile: "seg/file0.warc.gz",
		CorpusID:    &id,
		NewEdges:    3,
		Edges:       []uint64{1, 2, 3},
		TestedAt:    time.Unix(0, 0).UTC(),
	}

	writer.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kgo.Message) error {
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			if string(msgs[0].Key) != "12" {
				t.Fatalf("unexpected message key: %s", string(msgs[0].Key))
			}
			var got models.ResultEvent
			if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
				t.Fatalf("failed to decode message: %v", err)
			}
			if got.Position != event.Position || got.Outcome != event.Outcome || got.NewEdges != 3 {
				t.Fatalf("unexpected event payload: %+v", got)
			}
			if got.CorpusID == nil || *got.CorpusID != 4 {
				t.Fatalf("unexpected corpus id: %v", got.CorpusID)
			}
			return nil
		})

	if err := prod.WriteResult(context.Background(), event); err != nil {
		t.Fatalf("WriteResult returned error: %v", err)
	}
}

func TestProducerWriteResultError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer := mocks.NewMockMessageWriter(ctrl)
	prod := events.NewProducerWithWriter(writer)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("write failed"))
	if err := prod.WriteResult(context.Background(), models.ResultEvent{Outcome: models.OutcomeSkip}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestNilProducerIsNoOp(t *testing.T) {
	var prod *events.Producer
	if err := prod.WriteResult(context.Background(), models.ResultEvent{}); err != nil {
		t.Fatalf("nil producer WriteResult: %v", err)
	}
	if err := prod.Close(); err != nil {
		t.Fatalf("nil producer Close: %v", err)
	}
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"

	"docuquery/internal/model"
)

func newTestCache(t *testing.T) (*RunCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRunCache(client, time.Minute), mr
}

func TestRunCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	run := &model.AskRun{ID: "run-1", Document: "policy.pdf", Model: "llama3-70b-8192"}
	run.SetRecords([]model.AnswerRecord{
		{Question: "What is covered?", Answer: "Fire damage.", Confidence: 0.8, Metadata: model.AnswerMetadata{Success: true}},
	})
	if err := c.SetRun(ctx, run); err != nil {
		t.Fatalf("SetRun() error = %v", err)
	}
	if ttl := mr.TTL("docuquery:run:run-1"); ttl != time.Minute {
		t.Fatalf("TTL = %s, want 1m", ttl)
	}

	got, hit, err := c.GetRun(ctx, "run-1")
	if err != nil || !hit {
		t.Fatalf("GetRun() = %v, %v", hit, err)
	}
	records := got.Records()
	if got.Document != "policy.pdf" || got.Questions != 1 || len(records) != 1 || records[0].Answer != "Fire damage." {
		t.Fatalf("unexpected cached run %#v", got)
	}
}

func TestRunCacheMissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, hit, err := c.GetRun(ctx, "nope"); hit || err != nil {
		t.Fatalf("GetRun(missing) = %v, %v", hit, err)
	}

	if err := c.SetRun(ctx, &model.AskRun{ID: "run-2"}); err != nil {
		t.Fatalf("SetRun() error = %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.GetRun(ctx, "run-2"); hit {
		t.Fatalf("expired run must miss")
	}
}

func TestRunCacheCorruptPayload(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set("docuquery:run:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := c.GetRun(context.Background(), "bad"); err == nil {
		t.Fatalf("expected decode error")
	}
}

package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplace_routesEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Replace(zap.New(core))

	With("owner_id", "u-1").Infow("snapshot delivered", "records", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["owner_id"] != "u-1" {
		t.Errorf("expected owner_id field, got %v", fields)
	}
	if fields["records"] != int64(3) {
		t.Errorf("expected records=3, got %v", fields["records"])
	}
}

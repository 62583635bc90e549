package logging

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/x-ordo/the-landlord-web-client/internal/config"
)

func TestInitSetsLevel(t *testing.T) {
	Init(config.LogConfig{Level: "warn"})
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("global level = %v, want warn", zerolog.GlobalLevel())
	}
	Init(config.LogConfig{Level: "info"})
}

func TestInitBadLevelFallsBack(t *testing.T) {
	Init(config.LogConfig{Level: "nope"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want info", zerolog.GlobalLevel())
	}
}

func TestWriterNotNil(t *testing.T) {
	Init(config.LogConfig{Level: "info"})
	if Writer() == nil {
		t.Fatal("Writer() = nil")
	}
}

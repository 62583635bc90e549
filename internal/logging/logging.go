package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/x-ordo/the-landlord-web-client/internal/config"
)

var writer io.Writer = os.Stdout

// Init configures the global zerolog logger. Safe to call once per binary.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	if strings.TrimSpace(cfg.File) != "" {
		if fw, err := newCappedFileWriter(cfg.File, cfg.FileMaxBytes()); err == nil {
			output = io.MultiWriter(output, fw)
		}
	}
	writer = output

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the destination Init configured, for handing to
// non-zerolog consumers such as the devserver's request logger.
func Writer() io.Writer {
	return writer
}

package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger. Unknown levels fall back to info.
func InitLogger(level string, pretty bool) {
	initLogger(os.Stdout, level, pretty)
}

func initLogger(out io.Writer, level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()

	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)
}

// BotLogf logs a component or game issue tagged with its area
func BotLogf(area string, format string, args ...interface{}) {
	log.Warn().Str("area", area).Msg(fmt.Sprintf(format, args...))
}

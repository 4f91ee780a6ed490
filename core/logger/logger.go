package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

// Init sets the global log level. Unknown levels fall back to info.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log = log.Level(lvl)
}

func Info(msg string, kv ...any) {
	emit(log.Info(), msg, kv)
}

func Warn(msg string, kv ...any) {
	emit(log.Warn(), msg, kv)
}

func Error(msg string, kv ...any) {
	emit(log.Error(), msg, kv)
}

func Debug(msg string, kv ...any) {
	emit(log.Debug(), msg, kv)
}

// emit attaches the trailing arguments as fields. Arguments are treated as
// alternating key/value pairs; a lone error is attached as the "error" field
// so call sites can pass either shape.
func emit(ev *zerolog.Event, msg string, kv []any) {
	if len(kv) == 1 {
		if err, ok := kv[0].(error); ok {
			ev.Err(err).Msg(msg)
			return
		}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			ev = ev.Interface("arg", kv[i])
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	if len(kv)%2 != 0 && len(kv) > 1 {
		ev = ev.Interface("arg", kv[len(kv)-1])
	}
	ev.Msg(msg)
}

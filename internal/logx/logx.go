package logx

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Opts controls how the global logger is initialised.
type Opts struct {
	Production bool
	Level      string
}

func safe(opts ...Opts) *Opts {
	if len(opts) == 0 {
		return &Opts{}
	}
	return &opts[0]
}

// Init configures the package-global zerolog logger. Development gets a
// console writer with caller info; production stays on the default JSON
// writer at info level or above.
func Init(opts ...Opts) {
	o := safe(opts...)
	if o.Production {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	} else {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger()
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	if o.Level != "" {
		if lvl, err := zerolog.ParseLevel(o.Level); err == nil {
			log.Logger = log.Logger.Level(lvl)
		}
	}
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

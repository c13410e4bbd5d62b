// Command mapsforge inspects map files and serves their tiles.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/FireworkMC/mapsforge/mapfile"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"github.com/yehan2002/errors"
)

var (
	logLevel = flag.String("log", "info", "log level (debug, info, warn, error)")
	language = flag.String("lang", "", "preferred language for names")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&infoCmd{}, "")
	subcommands.Register(&readCmd{}, "")
	subcommands.Register(&exportCmd{}, "")
	subcommands.Register(&serveCmd{}, "")
	subcommands.ImportantFlag("log")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithError(err).Warn("invalid log level")
	}
	return log
}

// openMapFiles opens a comma separated list of map files.
// The files are combined when more than one file is given.
func openMapFiles(paths string, log logrus.FieldLogger) (*mapfile.MultiMapFile, error) {
	if paths == "" {
		return nil, errors.Error("no map file given")
	}

	mm := mapfile.NewMultiMapFile(mapfile.Deduplicate)
	for _, path := range strings.Split(paths, ",") {
		m, err := mapfile.Open(path, mapfile.Settings{PreferredLanguage: *language, Logger: log.WithField("file", path)})
		if err != nil {
			mm.Close()
			return nil, errors.Wrap("unable to open "+path, err)
		}
		if err = mm.Add(m); err != nil {
			m.Close()
			mm.Close()
			return nil, err
		}
	}
	return mm, nil
}

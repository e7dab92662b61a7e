package cli

import (
	"netstack/log"

	"github.com/pkg/errors"
)

func ApplyLogLevel(level string) error {
	lvl, err := log.NewLevel(level)
	if err != nil {
		return errors.Wrap(err, "error parsing log level")
	}
	log.SetLevel(lvl)
	return nil
}

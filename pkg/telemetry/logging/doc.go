/*
Package logging configures structured logging for argus.

All components log through log/slog. This package builds a *slog.Logger
from the configured level and format and optionally installs it as the
process default:

	logger, err := logging.New(logging.Config{Level: "debug", Format: "text"})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

Components derive their own loggers with a component attribute:

	log := slog.Default().With("component", "policy.engine")
*/
package logging

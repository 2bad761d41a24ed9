// Package logging builds the structured loggers used across basicrules.
//
// Loggers are plain *slog.Logger values with a JSON or text handler. The
// handler is wrapped so that records logged with a context carry the
// evaluation fields stored in it:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Format: "json"})
//	ctx = logging.WithEvaluationID(ctx, id)
//	logger.DebugContext(ctx, "rule evaluated", "rule", name)
//	// {"level":"DEBUG","msg":"rule evaluated","rule":"...","evaluation_id":"..."}
package logging

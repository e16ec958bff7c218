// Package logging provides structured logging for coachd.
//
// The package wraps Zap with:
//   - a Trace level below Debug
//   - stderr output plus an optional OpenTelemetry bridge
//   - automatic correlation fields from context (trace_id, session.id, user.id, request.id)
//   - encoder-level redaction of secret-looking keys and values
//   - level-aware sampling (errors are never sampled)
//
// # Usage
//
//	cfg, err := logging.FromSettings(appCfg.Logging)
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	defer logger.Sync()
//
//	ctx = logging.WithSessionID(ctx, "session_20250101_120000")
//	ctx = logging.WithUserID(ctx, "user1")
//	logger.Info(ctx, "analysis complete", zap.Duration("duration", d))
//
// Components that want a plain *zap.Logger receive logger.Underlying(); they
// lose context field injection but keep redaction and sampling.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	orch := orchestrator.New(..., orchestrator.WithLogger(tl.Logger))
//	tl.AssertLogged(t, zapcore.WarnLevel, "progress lookup failed")
package logging

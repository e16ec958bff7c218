package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore samples entries below Error at the Info rate. Errors bypass
// the sampler so every failed extractor or session is logged.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	rate := cfg.Levels[zapcore.InfoLevel]
	return &errorBypassCore{
		Core: zapcore.NewSamplerWithOptions(core, cfg.Tick.Duration(), rate.Initial, rate.Thereafter),
		full: core,
	}
}

// errorBypassCore routes Error and above to full and the rest to the
// embedded sampled core.
type errorBypassCore struct {
	zapcore.Core
	full zapcore.Core
}

func (c *errorBypassCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Level >= zapcore.ErrorLevel {
		return c.full.Check(e, ce)
	}
	return c.Core.Check(e, ce)
}

func (c *errorBypassCore) With(fields []zapcore.Field) zapcore.Core {
	return &errorBypassCore{Core: c.Core.With(fields), full: c.full.With(fields)}
}

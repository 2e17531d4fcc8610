package gologger

import (
	glog "github.com/goliatone/go-logger/glog"
)

// Resolve uses deterministic precedence provider > logger > nop. The returned
// provider is never nil.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	resolvedProvider, resolvedLogger := glog.Resolve(name, provider, logger)
	resolvedLogger = glog.Ensure(resolvedLogger)
	if resolvedProvider == nil {
		resolvedProvider = glog.ProviderFromLogger(resolvedLogger)
	}
	return resolvedProvider, resolvedLogger
}

package bytecode

import "github.com/tliron/commonlog"

// LogTracer reports events as Debug messages on a commonlog logger.
type LogTracer struct {
	log commonlog.Logger
}

// NewLogTracer creates a tracer logging to log, or to the "stackvm.trace"
// logger if log is nil.
func NewLogTracer(log commonlog.Logger) *LogTracer {
	if log == nil {
		log = commonlog.GetLogger("stackvm.trace")
	}
	return &LogTracer{log: log}
}

// Trace logs ev if the logger allows Debug messages.
func (t *LogTracer) Trace(ev *TraceEvent) {
	if !t.log.AllowLevel(commonlog.Debug) {
		return
	}
	kv := []any{
		"run", ev.RunID.String(),
		"offset", ev.Offset,
		"line", ev.Line,
	}
	if ev.Operand != nil {
		kv = append(kv, "handle", ev.Operand.Handle, "value", ev.Operand.Value.String())
	}
	if len(ev.Args) > 0 {
		kv = append(kv, "args", formatValues(ev.Args))
	}
	if ev.Returned != nil {
		kv = append(kv, "returned", ev.Returned.String())
	}
	kv = append(kv, "stack", formatValues(ev.Stack))
	t.log.Debug(ev.Mnemonic, kv...)
}

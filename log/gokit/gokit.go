package gokit

import (
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/unkn0wn-root/snapmut"
)

var _ snapmut.Logger = Logger{}

type Logger struct{ L kitlog.Logger }

func (g Logger) Debug(msg string, f snapmut.Fields) { _ = level.Debug(g.L).Log(keyvals(msg, f)...) }
func (g Logger) Info(msg string, f snapmut.Fields)  { _ = level.Info(g.L).Log(keyvals(msg, f)...) }
func (g Logger) Warn(msg string, f snapmut.Fields)  { _ = level.Warn(g.L).Log(keyvals(msg, f)...) }
func (g Logger) Error(msg string, f snapmut.Fields) { _ = level.Error(g.L).Log(keyvals(msg, f)...) }

func keyvals(msg string, f snapmut.Fields) []any {
	out := make([]any, 0, 2+2*len(f))
	out = append(out, "msg", msg)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}

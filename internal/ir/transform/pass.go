// Package transform holds structural rewrites over a built ir.Method: passes
// that change the shape of the CFG rather than just computing facts about it
// (that is internal/ir/analysis's job). Every pass here takes the
// ir.MethodBuilder checked out for the method it rewrites, so it composes
// with hand-written construction in the same builder session.
package transform

import (
	"github.com/sirupsen/logrus"

	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/irdebug"
)

// Pass is one structural rewrite over a method, driven by RunPasses.
type Pass interface {
	Name() string
	Run(mb *ir.MethodBuilder) error
}

// RunPasses runs each pass over mb in order, stopping at the first error.
// When irdebug.PassLoggingEnabled, one debug entry naming the pass and the
// method is logged via logrus before each pass runs — mirroring the teacher's
// gated per-pass debug print around RunPasses in ssa/pass.go.
func RunPasses(mb *ir.MethodBuilder, log *logrus.Logger, passes ...Pass) error {
	for _, p := range passes {
		if irdebug.PassLoggingEnabled && log != nil {
			log.WithField("pass", p.Name()).WithField("method", mb.Method().Name()).Debug("running pass")
		}
		if err := p.Run(mb); err != nil {
			return err
		}
	}
	return nil
}

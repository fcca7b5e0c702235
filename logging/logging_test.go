package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestNewTestLoggerNamedChildDoesNotPanic(t *testing.T) {
	log := NewTest("root")
	child := log.Named("child")

	test.That(t, func() { log.Infow("hello", "k", "v") }, test.ShouldNotPanic)
	test.That(t, func() { child.Debugw("nested", "n", 1) }, test.ShouldNotPanic)
	test.That(t, func() { child.Warnw("warn") }, test.ShouldNotPanic)
	test.That(t, func() { child.Errorw("err", "e", "boom") }, test.ShouldNotPanic)
}

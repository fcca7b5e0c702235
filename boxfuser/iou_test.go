package boxfuser

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/dynobstacle/obstacle"
)

func box(center, extents r3.Vector) obstacle.Box3 {
	return obstacle.NewBox3(center, extents, 0)
}

func TestIoUSymmetric(t *testing.T) {
	a := box(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})
	b := box(r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})
	test.That(t, IoU(a, b), test.ShouldAlmostEqual, IoU(b, a))
}

func TestIoUSelfIsOne(t *testing.T) {
	a := box(r3.Vector{X: 3, Y: 1, Z: 0.5}, r3.Vector{X: 0.6, Y: 0.6, Z: 1.5})
	test.That(t, IoU(a, a), test.ShouldAlmostEqual, 1.0)
}

func TestIoUDisjointIsZero(t *testing.T) {
	a := box(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 1, Z: 1})
	b := box(r3.Vector{X: 10, Y: 10, Z: 10}, r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, IoU(a, b), test.ShouldEqual, 0.0)
}

func TestIoUFullContainment(t *testing.T) {
	outer := box(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 10, Y: 10, Z: 10})
	inner := box(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 1, Z: 1})
	iou := IoU(outer, inner)
	// overlap volume = inner volume = 1; union = 1000 + 1 - 1 = 1000.
	test.That(t, iou, test.ShouldAlmostEqual, 1.0/1000.0)
}

// TestIoUScenarioS2 mirrors scenario S2's overlap check.
func TestIoUScenarioS2(t *testing.T) {
	uv := box(r3.Vector{X: 3, Y: 0, Z: 0.5}, r3.Vector{X: 0.6, Y: 0.6, Z: 1.6})
	dbs := box(r3.Vector{X: 3.05, Y: 0, Z: 0.5}, r3.Vector{X: 0.55, Y: 0.55, Z: 1.5})
	test.That(t, IoU(uv, dbs) > 0.5, test.ShouldBeTrue)
}

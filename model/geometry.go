package model

import "math"

// Point is a 2D position in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point        { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point        { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Scale(f float64) Point    { return Point{p.X * f, p.Y * f} }
func (p Point) Norm() float64            { return math.Hypot(p.X, p.Y) }
func (p Point) Distance(o Point) float64 { return p.Sub(o).Norm() }

// Rotate rotates p around the origin by angle radians.
func (p Point) Rotate(angle float64) Point {
	s, c := math.Sincos(angle)
	return Point{c*p.X - s*p.Y, s*p.X + c*p.Y}
}

// Pose is a rigid 2D transform: a translation plus a heading in radians.
// A Pose named a_to_b maps coordinates in frame a to frame b.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// Identity is the pose that maps every point onto itself.
func Identity() Pose { return Pose{} }

func (p Pose) Translation() Point { return Point{p.X, p.Y} }

// Apply maps pt from the pose's source frame into its target frame.
func (p Pose) Apply(pt Point) Point {
	return pt.Rotate(p.Theta).Add(p.Translation())
}

// Inverse returns the transform mapping back from the target frame.
func (p Pose) Inverse() Pose {
	t := p.Translation().Scale(-1).Rotate(-p.Theta)
	return Pose{X: t.X, Y: t.Y, Theta: NormalizeAngle(-p.Theta)}
}

// Compose returns p∘o: first o, then p.
func (p Pose) Compose(o Pose) Pose {
	t := p.Apply(o.Translation())
	return Pose{X: t.X, Y: t.Y, Theta: NormalizeAngle(p.Theta + o.Theta)}
}

// NormalizeAngle wraps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// HeadingTowards is the angle of the direction from origin to target.
// Coincident points yield 0.
func HeadingTowards(origin, target Point) float64 {
	d := target.Sub(origin)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return math.Atan2(d.Y, d.X)
}

// PoseLookingAt places a pose at position facing target.
func PoseLookingAt(position, target Point) Pose {
	return Pose{X: position.X, Y: position.Y, Theta: HeadingTowards(position, target)}
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamp restricts v to the interval spanned by lo and hi, in either order.
func Clamp(v, lo, hi float64) float64 { return clamp(v, lo, hi) }

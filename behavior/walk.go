package behavior

import (
	"math"

	"github.com/nstehr/pitch/pitch-core/model"
)

// alignWithPathDistance is how far from the target a walk keeps turning
// along its path instead of holding the final orientation.
const alignWithPathDistance = 1.0

// walkAndStand walks to target, given in field coordinates, and stands once
// it is reached. Not applicable without localization.
func (e *Env) walkAndStand(target model.Pose, head model.HeadMotion) (model.MotionCommand, bool) {
	robotToField, ok := e.Pose()
	if !ok {
		return model.MotionCommand{}, false
	}
	relative := robotToField.Inverse().Compose(target)

	cfg := e.Config.WalkAndStand
	distanceThreshold := cfg.TargetReachedThreshold
	angleThreshold := cfg.AngleThreshold
	if e.LastMotionCommand.IsStand() {
		distanceThreshold += cfg.Hysteresis
		angleThreshold += cfg.AngleHysteresis
	}

	distance := relative.Translation().Norm()
	if distance < distanceThreshold && math.Abs(relative.Theta) < angleThreshold {
		return model.StandCommand(head, false), true
	}

	path, blocking := planPath(relative.Translation(), e.World.Obstacles, cfg.ObstacleCorridor)
	e.PathObstacles = append(e.PathObstacles, blocking...)

	mode := model.OrientationOverride
	if distance > alignWithPathDistance {
		mode = model.OrientationAlignWithPath
	}
	return model.WalkCommand(head, relative, path, mode), true
}

// planPath returns a robot-relative path from the origin to target. If an
// obstacle sits within corridor of the straight segment a single detour
// waypoint is inserted beside the nearest one. The obstacles that touch the
// corridor are returned for telemetry.
func planPath(target model.Point, obstacles []model.Obstacle, corridor float64) ([]model.Point, []model.Obstacle) {
	var (
		blocking []model.Obstacle
		nearest  *model.Obstacle
		nearestT = math.Inf(1)
	)
	for i := range obstacles {
		o := obstacles[i]
		d, t := segmentDistance(model.Point{}, target, o.Position)
		if d >= o.Radius+corridor || t <= 0 || t >= 1 {
			continue
		}
		blocking = append(blocking, o)
		if t < nearestT {
			nearestT = t
			nearest = &obstacles[i]
		}
	}
	if nearest == nil {
		return []model.Point{{}, target}, blocking
	}

	// Step around on the side of the segment the obstacle is not on.
	dir := target.Scale(1 / target.Norm())
	normal := model.Point{X: -dir.Y, Y: dir.X}
	side := 1.0
	if cross(dir, nearest.Position) > 0 {
		side = -1
	}
	waypoint := nearest.Position.Add(normal.Scale(side * (nearest.Radius + corridor)))
	return []model.Point{{}, waypoint, target}, blocking
}

// segmentDistance is the distance from p to segment ab and the projection
// parameter t of p onto ab.
func segmentDistance(a, b, p model.Point) (float64, float64) {
	ab := b.Sub(a)
	lengthSquared := ab.X*ab.X + ab.Y*ab.Y
	if lengthSquared == 0 {
		return p.Distance(a), 0
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / lengthSquared
	tc := clamp(t, 0, 1)
	closest := a.Add(ab.Scale(tc))
	return p.Distance(closest), t
}

func cross(a, b model.Point) float64 { return a.X*b.Y - a.Y*b.X }

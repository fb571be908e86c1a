package model

// FieldDimensions describes the pitch in meters. Field coordinates put the
// origin at the center spot, x toward the opponent goal and y to the left.
type FieldDimensions struct {
	Length                float64 `json:"length" yaml:"length"`
	Width                 float64 `json:"width" yaml:"width"`
	LineWidth             float64 `json:"lineWidth" yaml:"line_width"`
	GoalInnerWidth        float64 `json:"goalInnerWidth" yaml:"goal_inner_width"`
	GoalBoxAreaLength     float64 `json:"goalBoxAreaLength" yaml:"goal_box_area_length"`
	GoalBoxAreaWidth      float64 `json:"goalBoxAreaWidth" yaml:"goal_box_area_width"`
	PenaltyAreaLength     float64 `json:"penaltyAreaLength" yaml:"penalty_area_length"`
	PenaltyAreaWidth      float64 `json:"penaltyAreaWidth" yaml:"penalty_area_width"`
	PenaltyMarkerDistance float64 `json:"penaltyMarkerDistance" yaml:"penalty_marker_distance"`
	CenterCircleDiameter  float64 `json:"centerCircleDiameter" yaml:"center_circle_diameter"`
	BorderStripWidth      float64 `json:"borderStripWidth" yaml:"border_strip_width"`
}

// StandardField returns the dimensions of the standard platform league field.
func StandardField() FieldDimensions {
	return FieldDimensions{
		Length:                9.0,
		Width:                 6.0,
		LineWidth:             0.05,
		GoalInnerWidth:        1.5,
		GoalBoxAreaLength:     0.6,
		GoalBoxAreaWidth:      2.2,
		PenaltyAreaLength:     1.65,
		PenaltyAreaWidth:      4.0,
		PenaltyMarkerDistance: 1.3,
		CenterCircleDiameter:  1.5,
		BorderStripWidth:      0.7,
	}
}

// Valid reports whether the field has a usable, positive extent.
func (f FieldDimensions) Valid() bool {
	return f.Length > 0 && f.Width > 0 && f.PenaltyMarkerDistance < f.Length/2
}

func (f FieldDimensions) OwnGoalCenter() Point      { return Point{X: -f.Length / 2} }
func (f FieldDimensions) OpponentGoalCenter() Point { return Point{X: f.Length / 2} }

// OwnPenaltyMarker is the penalty spot in front of the own goal.
func (f FieldDimensions) OwnPenaltyMarker() Point {
	return Point{X: -f.Length/2 + f.PenaltyMarkerDistance}
}

// OpponentPenaltyMarker is the penalty spot in front of the opponent goal.
func (f FieldDimensions) OpponentPenaltyMarker() Point {
	return Point{X: f.Length/2 - f.PenaltyMarkerDistance}
}

// RefereePosition is the T-junction of the halfway line and the touchline
// on the given side, where the referee stands to give hand signals.
func (f FieldDimensions) RefereePosition(side Side) Point {
	if side == SideRight {
		return Point{Y: -f.Width / 2}
	}
	return Point{Y: f.Width / 2}
}

// Contains reports whether pt lies on the field including the border strip.
func (f FieldDimensions) Contains(pt Point) bool {
	hx := f.Length/2 + f.BorderStripWidth
	hy := f.Width/2 + f.BorderStripWidth
	return pt.X >= -hx && pt.X <= hx && pt.Y >= -hy && pt.Y <= hy
}

// ClampToField pulls pt back inside the playing area lines.
func (f FieldDimensions) ClampToField(pt Point) Point {
	return Point{
		X: clamp(pt.X, -f.Length/2, f.Length/2),
		Y: clamp(pt.Y, -f.Width/2, f.Width/2),
	}
}

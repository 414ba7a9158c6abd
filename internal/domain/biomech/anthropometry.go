// Package biomech derives computed landmarks from a raw pose: mirror-filled
// bilateral joints, shoulder and hip midpoints, per-segment centers of mass
// and the whole-body center of mass.
//
// Segment tables follow de Leva (1996), "Adjustments to Zatsiorsky-Seluyanov's
// segment inertia parameters".
package biomech

import (
	"fmt"
	"strings"

	"github.com/okian/posecom/internal/domain/landmark"
)

// Sex selects the anthropometric column.
type Sex int

// Supported sexes.
const (
	Male Sex = iota
	Female
)

// String returns the lower-case name.
func (s Sex) String() string {
	if s == Female {
		return "female"
	}
	return "male"
}

// ParseSex accepts "male"/"m" and "female"/"f" (case-insensitive).
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	default:
		return Male, fmt.Errorf("%w: %q", ErrUnknownSex, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sex) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sex) UnmarshalText(b []byte) error {
	v, err := ParseSex(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SegmentDefinition locates a segment's COM along its proximal->distal axis.
type SegmentDefinition struct {
	Slot      int
	Proximal  int
	Distal    int
	COMMale   float64
	COMFemale float64
}

// COMFraction returns the fraction for sex.
func (d SegmentDefinition) COMFraction(sex Sex) float64 {
	if sex == Female {
		return d.COMFemale
	}
	return d.COMMale
}

// SegmentMass is a segment's fraction of total body mass.
type SegmentMass struct {
	Slot   int
	Male   float64
	Female float64
}

// Fraction returns the mass fraction for sex.
func (m SegmentMass) Fraction(sex Sex) float64 {
	if sex == Female {
		return m.Female
	}
	return m.Male
}

// The head has no vertex landmark; its COM is taken at the mid-tragion point,
// which sits within a centimeter of the de Leva head COM.
var segmentDefinitions = []SegmentDefinition{
	{landmark.HeadCOM, landmark.LeftEar, landmark.RightEar, 0.5, 0.5},
	{landmark.TrunkCOM, landmark.MidShoulder, landmark.MidHip, 0.4486, 0.4151},
	{landmark.LeftUpperArmCOM, landmark.LeftShoulder, landmark.LeftElbow, 0.5772, 0.5754},
	{landmark.RightUpperArmCOM, landmark.RightShoulder, landmark.RightElbow, 0.5772, 0.5754},
	{landmark.LeftForearmCOM, landmark.LeftElbow, landmark.LeftWrist, 0.4574, 0.4559},
	{landmark.RightForearmCOM, landmark.RightElbow, landmark.RightWrist, 0.4574, 0.4559},
	{landmark.LeftHandCOM, landmark.LeftWrist, landmark.LeftIndex, 0.7900, 0.7474},
	{landmark.RightHandCOM, landmark.RightWrist, landmark.RightIndex, 0.7900, 0.7474},
	{landmark.LeftThighCOM, landmark.LeftHip, landmark.LeftKnee, 0.4095, 0.3612},
	{landmark.RightThighCOM, landmark.RightHip, landmark.RightKnee, 0.4095, 0.3612},
	{landmark.LeftShankCOM, landmark.LeftKnee, landmark.LeftAnkle, 0.4459, 0.4416},
	{landmark.RightShankCOM, landmark.RightKnee, landmark.RightAnkle, 0.4459, 0.4416},
	{landmark.LeftFootCOM, landmark.LeftHeel, landmark.LeftFootIndex, 0.4415, 0.4014},
	{landmark.RightFootCOM, landmark.RightHeel, landmark.RightFootIndex, 0.4415, 0.4014},
}

var segmentMasses = []SegmentMass{
	{landmark.HeadCOM, 0.0694, 0.0668},
	{landmark.TrunkCOM, 0.4346, 0.4257},
	{landmark.LeftUpperArmCOM, 0.0271, 0.0255},
	{landmark.RightUpperArmCOM, 0.0271, 0.0255},
	{landmark.LeftForearmCOM, 0.0162, 0.0138},
	{landmark.RightForearmCOM, 0.0162, 0.0138},
	{landmark.LeftHandCOM, 0.0061, 0.0056},
	{landmark.RightHandCOM, 0.0061, 0.0056},
	{landmark.LeftThighCOM, 0.1416, 0.1478},
	{landmark.RightThighCOM, 0.1416, 0.1478},
	{landmark.LeftShankCOM, 0.0433, 0.0481},
	{landmark.RightShankCOM, 0.0433, 0.0481},
	{landmark.LeftFootCOM, 0.0137, 0.0129},
	{landmark.RightFootCOM, 0.0137, 0.0129},
}

// SegmentDefinitions returns a copy of the 14-row segment table.
func SegmentDefinitions() []SegmentDefinition {
	out := make([]SegmentDefinition, len(segmentDefinitions))
	copy(out, segmentDefinitions)
	return out
}

// SegmentMasses returns a copy of the 14-row mass table.
func SegmentMasses() []SegmentMass {
	out := make([]SegmentMass, len(segmentMasses))
	copy(out, segmentMasses)
	return out
}

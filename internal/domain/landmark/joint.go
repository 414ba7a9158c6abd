package landmark

import (
	"encoding/json"

	"github.com/golang/geo/r3"
)

// Joint is a single tracked body point. For image-space sets X and Y are
// normalized to [0,1]; for world sets they are meters.
type Joint struct {
	Position   r3.Vector
	Visibility float64
}

// NewJoint builds a joint from components.
func NewJoint(x, y, z, visibility float64) Joint {
	return Joint{Position: r3.Vector{X: x, Y: y, Z: z}, Visibility: visibility}
}

// Present reports whether the joint meets the presence threshold.
func (j Joint) Present(threshold float64) bool {
	return j.Visibility >= threshold
}

type jointJSON struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// MarshalJSON encodes the joint as {x,y,z,visibility}.
func (j Joint) MarshalJSON() ([]byte, error) {
	return json.Marshal(jointJSON{X: j.Position.X, Y: j.Position.Y, Z: j.Position.Z, Visibility: j.Visibility})
}

// UnmarshalJSON decodes {x,y,z,visibility}.
func (j *Joint) UnmarshalJSON(b []byte) error {
	var v jointJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*j = NewJoint(v.X, v.Y, v.Z, v.Visibility)
	return nil
}

// Package landmark holds the 50-slot landmark vocabulary shared by the pose
// pipeline: the 33 raw estimator joints, the derived midpoints, the segment
// centers of mass and the whole-body center of mass.
package landmark

// Slot layout.
const (
	RawCount = 33 // joints delivered by the estimator
	Count    = 50 // raw joints plus derived slots
)

// Raw estimator joints (MediaPipe Pose topology).
const (
	Nose = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// Derived slots.
const (
	MidShoulder = iota + RawCount
	MidHip
	HeadCOM
	TrunkCOM
	LeftUpperArmCOM
	RightUpperArmCOM
	LeftForearmCOM
	RightForearmCOM
	LeftHandCOM
	RightHandCOM
	LeftThighCOM
	RightThighCOM
	LeftShankCOM
	RightShankCOM
	LeftFootCOM
	RightFootCOM
	TotalBodyCOM
)

var names = [Count]string{
	"Nose",
	"Left_Eye_Inner",
	"Left_Eye",
	"Left_Eye_Outer",
	"Right_Eye_Inner",
	"Right_Eye",
	"Right_Eye_Outer",
	"Left_Ear",
	"Right_Ear",
	"Mouth_Left",
	"Mouth_Right",
	"Left_Shoulder",
	"Right_Shoulder",
	"Left_Elbow",
	"Right_Elbow",
	"Left_Wrist",
	"Right_Wrist",
	"Left_Pinky",
	"Right_Pinky",
	"Left_Index",
	"Right_Index",
	"Left_Thumb",
	"Right_Thumb",
	"Left_Hip",
	"Right_Hip",
	"Left_Knee",
	"Right_Knee",
	"Left_Ankle",
	"Right_Ankle",
	"Left_Heel",
	"Right_Heel",
	"Left_Foot_Index",
	"Right_Foot_Index",
	"Mid_Shoulder",
	"Mid_Hip",
	"Head_COM",
	"Trunk_COM",
	"Left_Upper_Arm_COM",
	"Right_Upper_Arm_COM",
	"Left_Forearm_COM",
	"Right_Forearm_COM",
	"Left_Hand_COM",
	"Right_Hand_COM",
	"Left_Thigh_COM",
	"Right_Thigh_COM",
	"Left_Shank_COM",
	"Right_Shank_COM",
	"Left_Foot_COM",
	"Right_Foot_COM",
	"Total_Body_COM",
}

// excluded marks face and finger joints that are never displayed or exported.
var excluded = func() [Count]bool {
	var ex [Count]bool
	for _, i := range []int{
		Nose, LeftEyeInner, LeftEye, LeftEyeOuter, RightEyeInner, RightEye, RightEyeOuter,
		MouthLeft, MouthRight, LeftPinky, RightPinky, LeftThumb, RightThumb,
	} {
		ex[i] = true
	}
	return ex
}()

// Pair is a bilateral joint pair used by mirror filling.
type Pair struct {
	Left  int
	Right int
}

// pairs lists the bilateral body joints. Face joints, ears included, are
// central: a hidden ear leaves Head_COM empty rather than borrowing the
// other side.
var pairs = []Pair{
	{LeftShoulder, RightShoulder},
	{LeftElbow, RightElbow},
	{LeftWrist, RightWrist},
	{LeftPinky, RightPinky},
	{LeftIndex, RightIndex},
	{LeftThumb, RightThumb},
	{LeftHip, RightHip},
	{LeftKnee, RightKnee},
	{LeftAnkle, RightAnkle},
	{LeftHeel, RightHeel},
	{LeftFootIndex, RightFootIndex},
}

// counterparts maps every paired joint to the opposite side; 22 entries.
var counterparts = func() map[int]int {
	m := make(map[int]int, 2*len(pairs))
	for _, p := range pairs {
		m[p.Left] = p.Right
		m[p.Right] = p.Left
	}
	return m
}()

// Name returns the export name of slot i, or "" when i is out of range.
func Name(i int) string {
	if !Valid(i) {
		return ""
	}
	return names[i]
}

// Names returns the names of all 50 slots in index order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Valid reports whether i addresses a slot.
func Valid(i int) bool { return i >= 0 && i < Count }

// IsRaw reports whether i is an estimator joint.
func IsRaw(i int) bool { return i >= 0 && i < RawCount }

// IsExcluded reports whether slot i is hidden from display and export.
func IsExcluded(i int) bool { return Valid(i) && excluded[i] }

// Pairs returns the bilateral pair table.
func Pairs() []Pair {
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	return out
}

// Counterpart returns the opposite-side joint of i. ok is false for central joints.
func Counterpart(i int) (int, bool) {
	c, ok := counterparts[i]
	return c, ok
}

// Exported returns the slot indices that appear in displays and exports, in order.
func Exported() []int {
	out := make([]int, 0, Count)
	for i := 0; i < Count; i++ {
		if !excluded[i] {
			out = append(out, i)
		}
	}
	return out
}

package layout

// Camera modes.
const (
	ModeDesk = "desk"
	ModeFree = "free"
)

// CameraState is the camera collaborator's view of the desk pose: the mode
// it is in, the live pose and the stored default. Nil poses are unset.
type CameraState struct {
	Mode    string `json:"mode"`
	Live    *Pose  `json:"live,omitempty"`
	Default *Pose  `json:"default,omitempty"`
}

// ApplyDefault stores next as the default pose when it differs from the
// stored one by more than cfg.FollowEpsilon. In desk mode the live pose
// follows only while it still matches the old default within
// cfg.LooseEpsilon, so a camera the user has orbited away stays put.
func (s *CameraState) ApplyDefault(next Pose, cfg CameraConfig) (changed, snapped bool) {
	old := s.Default
	if old != nil && PosesEqual(*old, next, cfg.FollowEpsilon) {
		return false, false
	}
	s.Default = &next

	if s.Mode != ModeDesk {
		return true, false
	}
	if s.Live == nil || (old != nil && PosesEqual(*s.Live, *old, cfg.LooseEpsilon)) {
		live := next
		s.Live = &live
		return true, true
	}
	return true, false
}

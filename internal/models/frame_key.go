package models

import (
	"fmt"
	"regexp"
	"strconv"
)

var frameKeyPattern = regexp.MustCompile(`^frame_(\d+)(?:_(left|right))?$`)

// FrameKey identifies one categorization slot of a user: a frame shown on a side.
type FrameKey struct {
	FrameID uint
	Side    Side
}

// String renders the paired wire form frame_<id>_<side>.
func (k FrameKey) String() string {
	return fmt.Sprintf("frame_%d_%s", k.FrameID, k.Side)
}

// Wire renders the key as sent to clients: frame_<id> for unpaired units.
func (k FrameKey) Wire(paired bool) string {
	if !paired {
		return fmt.Sprintf("frame_%d", k.FrameID)
	}
	return k.String()
}

// ParseFrameKey accepts frame_<id> and frame_<id>_<left|right>. A side-less key
// resolves to the left side.
func ParseFrameKey(s string) (FrameKey, error) {
	m := frameKeyPattern.FindStringSubmatch(s)
	if m == nil {
		return FrameKey{}, fmt.Errorf("invalid key format: %q", s)
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || id == 0 {
		return FrameKey{}, fmt.Errorf("invalid frame id in key %q", s)
	}
	key := FrameKey{FrameID: uint(id), Side: SideLeft}
	if m[2] != "" {
		side, err := ParseSide(m[2])
		if err != nil {
			return FrameKey{}, err
		}
		key.Side = side
	}
	return key, nil
}

package models

import (
	"fmt"
	"strconv"
	"strings"
)

type Side int

const (
	SideLeft  Side = 0
	SideRight Side = 1
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

func (s Side) Other() Side {
	if s == SideRight {
		return SideLeft
	}
	return SideRight
}

// ParseSide accepts "left" or "right".
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(v) {
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	default:
		return SideLeft, fmt.Errorf("unknown side %q", v)
	}
}

type Frame struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FrameName string `json:"frame_name" gorm:"not null;size:255"`
	FrameURL  string `json:"frame_url" gorm:"not null;size:1024"`
	SegmentID uint   `json:"segment_id" gorm:"not null;index"`
	Side      Side   `json:"side" gorm:"not null;default:0"`

	Segment *Segment `json:"-" gorm:"foreignKey:SegmentID"`
}

func (Frame) TableName() string {
	return "frames"
}

// Number returns the ordinal encoded in the frame name, see FrameNumber.
func (f *Frame) Number() int {
	return FrameNumber(f.FrameName)
}

// FrameNumber extracts the frame ordinal from names shaped like
// <subject>_<condition>_<frameNumber>_<suffix>. Unparseable names yield 0.
func FrameNumber(name string) int {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return n
}

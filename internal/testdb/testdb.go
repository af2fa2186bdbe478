// Package testdb opens migrated SQLite databases and seeds study fixtures for tests.
package testdb

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/framelab/annotation-service/internal/models"
)

// Open returns a migrated database backed by a file in t.TempDir.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "annotation.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Fixture is a small study: one paired group with two segments, a
// conversation with one segment and a solo segment.
type Fixture struct {
	Coder *models.User
	Other *models.User
	Admin *models.User

	Group         *models.Group
	GroupSegments []*models.Segment

	// GroupFrames[i] holds the frames of GroupSegments[i], left frame first for each number
	GroupFrames [][]*models.Frame

	Timepoint    *models.Timepoint
	Couple       *models.Couple
	Conversation *models.Conversation
	ConvSegment  *models.Segment
	ConvFrames   []*models.Frame

	SoloSegment *models.Segment
	SoloFrames  []*models.Frame
}

// Seed writes the fixture. Group segments are inserted out of presentation
// order and frames out of number order so ordering is observable.
func Seed(t testing.TB, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{
		Coder: &models.User{DisplayName: "Casey", Role: models.RoleCoder},
		Other: &models.User{DisplayName: "Robin", Role: models.RoleCoder},
		Admin: &models.User{DisplayName: "Alex", Role: models.RoleAdmin},
	}
	must(t, db.Create(f.Coder).Error)
	must(t, db.Create(f.Other).Error)
	must(t, db.Create(f.Admin).Error)

	f.Group = &models.Group{GroupNumber: 7}
	must(t, db.Create(f.Group).Error)

	for _, order := range []int{2, 1} {
		seg := &models.Segment{OrderPresented: order, GroupID: &f.Group.ID}
		must(t, db.Create(seg).Error)
		var frames []*models.Frame
		for _, n := range []int{27, 3} {
			for _, side := range []models.Side{models.SideLeft, models.SideRight} {
				frames = append(frames, &models.Frame{
					FrameName: fmt.Sprintf("s%d_%s_%d_x.jpg", order, side, n),
					FrameURL:  fmt.Sprintf("https://storage.cloud.google.com/mcnulty_frames/g7/s%d/%s_%d.jpg", order, side, n),
					SegmentID: seg.ID,
					Side:      side,
				})
			}
		}
		must(t, db.Create(&frames).Error)
		f.GroupSegments = append(f.GroupSegments, seg)
		f.GroupFrames = append(f.GroupFrames, frames)
	}

	f.Timepoint = &models.Timepoint{Code: "T1"}
	must(t, db.Create(f.Timepoint).Error)
	f.Couple = &models.Couple{TimepointID: f.Timepoint.ID, Code: "4003"}
	must(t, db.Create(f.Couple).Error)
	f.Conversation = &models.Conversation{CoupleID: f.Couple.ID, ConvoNumber: 1}
	must(t, db.Create(f.Conversation).Error)
	must(t, db.Create(&models.Conversation{CoupleID: f.Couple.ID, ConvoNumber: 2}).Error)

	f.ConvSegment = &models.Segment{OrderPresented: 1, ConversationID: &f.Conversation.ID}
	must(t, db.Create(f.ConvSegment).Error)
	f.ConvFrames = []*models.Frame{
		{FrameName: "c1_left_1_x.jpg", FrameURL: "c1/l1.jpg", SegmentID: f.ConvSegment.ID, Side: models.SideLeft},
		{FrameName: "c1_right_1_x.jpg", FrameURL: "c1/r1.jpg", SegmentID: f.ConvSegment.ID, Side: models.SideRight},
		{FrameName: "c1_left_2_x.jpg", FrameURL: "c1/l2.jpg", SegmentID: f.ConvSegment.ID, Side: models.SideLeft},
	}
	must(t, db.Create(&f.ConvFrames).Error)

	f.SoloSegment = &models.Segment{OrderPresented: 1}
	must(t, db.Create(f.SoloSegment).Error)
	for _, n := range []int{150, 3, 27} {
		f.SoloFrames = append(f.SoloFrames, &models.Frame{
			FrameName: fmt.Sprintf("subj_cond_%d_a.jpg", n),
			FrameURL:  fmt.Sprintf("solo/%d.jpg", n),
			SegmentID: f.SoloSegment.ID,
		})
	}
	must(t, db.Create(&f.SoloFrames).Error)

	return f
}

// GroupFrameCount is the number of frames in the fixture group.
func (f *Fixture) GroupFrameCount() int {
	n := 0
	for _, frames := range f.GroupFrames {
		n += len(frames)
	}
	return n
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

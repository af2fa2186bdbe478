package models

// Wire types shared by the HTTP handlers and the API client.

// ===== AUTH =====

type LoginRequest struct {
	UserID   uint   `json:"user_id"`
	Password string `json:"password"`
}

// ===== FRAMES =====

type FrameView struct {
	FrameNumber         int    `json:"frameNumber"`
	Data                string `json:"data"`
	Size                int    `json:"size"`
	ID                  uint   `json:"id,omitempty"`
	Name                string `json:"name"`
	SegmentID           uint   `json:"segment_id,omitempty"`
	SegmentOrder        int    `json:"segment_order,omitempty"`
	OriginalFrameNumber int    `json:"original_frame_number,omitempty"`
	LeftFrameID         *uint  `json:"leftFrameId,omitempty"`
	RightFrameID        *uint  `json:"rightFrameId,omitempty"`
}

// FrameIDFor returns the frame id shown on the given side, or nil when the side is empty.
// Unpaired frames only have an ID and answer for the left side.
func (f FrameView) FrameIDFor(side Side) *uint {
	if f.LeftFrameID == nil && f.RightFrameID == nil {
		if side == SideLeft && f.ID != 0 {
			id := f.ID
			return &id
		}
		return nil
	}
	if side == SideRight {
		return f.RightFrameID
	}
	return f.LeftFrameID
}

type FramesResponse struct {
	Success     bool        `json:"success"`
	Frames      []FrameView `json:"frames"`
	TotalFrames int         `json:"totalFrames"`
	Unit        Unit        `json:"unit"`
}

// ===== CATEGORIZATIONS =====

type CategorizationRecord struct {
	Category string  `json:"category"`
	Flagged  bool    `json:"flagged"`
	Note     *string `json:"note"`
}

type CategorizationsResponse struct {
	Success         bool                            `json:"success"`
	Categorizations map[string]CategorizationRecord `json:"categorizations"`
}

// SaveCategorizationsRequest carries unsaved edits keyed by frame_<id> or frame_<id>_<side>.
type SaveCategorizationsRequest struct {
	UnitSelector
	Changes map[string]CategorizationRecord `json:"changes" validate:"required"`
}

type KeyResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type SaveResult struct {
	Success bool        `json:"success"`
	Saved   int         `json:"saved"`
	Total   int         `json:"total"`
	Results []KeyResult `json:"results"`
	Error   string      `json:"error,omitempty"`
}

// ===== GROUPS =====

type GroupCompletionRequest struct {
	GroupID   uint `json:"group_id" validate:"required"`
	Completed bool `json:"completed"`
}

type GroupView struct {
	ID          uint `json:"id"`
	GroupNumber int  `json:"group_number"`
	Completed   bool `json:"completed"`
}

type SegmentView struct {
	ID             uint `json:"id"`
	OrderPresented int  `json:"order_presented"`
	GroupID        uint `json:"group_id"`
	GroupNumber    int  `json:"group_number"`
}

// ===== CONVERSATIONS =====

type ConversationRef struct {
	ConversationID uint `json:"conversation_id"`
	TimepointID    uint `json:"timepoint_id"`
	CoupleID       uint `json:"couple_id"`
}

type UserSummary struct {
	ID          uint     `json:"id"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
}

type ConversationDetails struct {
	ID                  uint         `json:"id"`
	CoupleID            uint         `json:"couple_id"`
	ConvoNumber         int          `json:"convo_number"`
	FirstPassCompleted  bool         `json:"first_pass_completed"`
	FirstPassBy         *uint        `json:"first_pass_by"`
	SecondPassCompleted bool         `json:"second_pass_completed"`
	SecondPassBy        *uint        `json:"second_pass_by"`
	FinalPassLocked     bool         `json:"final_pass_locked"`
	InProgressBy        *uint        `json:"in_progress_by"`
	InProgressUser      *UserSummary `json:"in_progress_user"`
	Status              string       `json:"status"`
}

type ConversationStatusUpdate struct {
	FirstPassCompleted  *bool `json:"first_pass_completed"`
	SecondPassCompleted *bool `json:"second_pass_completed"`
	FinalPassLocked     *bool `json:"final_pass_locked"`
	InProgress          *bool `json:"in_progress"`
}

type ConversationNote struct {
	Note *string `json:"note" validate:"omitempty,max=5000"`
}

type ConversationListItem struct {
	ID          uint   `json:"id"`
	CoupleID    uint   `json:"couple_id"`
	CoupleCode  string `json:"couple"`
	ConvoNumber int    `json:"convo_number"`
	Status      string `json:"status"`
	InProgress  bool   `json:"in_progress"`
}

type ConversationStats struct {
	Total      int `json:"total"`
	Locked     int `json:"locked"`
	SecondPass int `json:"second_pass"`
	FirstPass  int `json:"first_pass"`
	InProgress int `json:"in_progress"`
	Available  int `json:"available"`
}

type ConversationListResponse struct {
	Success       bool                   `json:"success"`
	Stats         ConversationStats      `json:"stats"`
	Couples       []string               `json:"couples"`
	Conversations []ConversationListItem `json:"conversations,omitempty"`
}

package models

import "time"

// TemplateType determines the shape of a session's outcome. It is fixed when
// the session is created and never changes.
type TemplateType string

const (
	TemplateSolo   TemplateType = "SOLO"
	TemplateVersus TemplateType = "VERSUS"
	TemplateGroup  TemplateType = "GROUP"
)

// SessionStatus is the lifecycle state of a game session. A session is ACTIVE
// until it is completed or cancelled exactly once; both are terminal.
type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// GameSession is one timed play instance of a game template at a beacon.
// Sessions are a historical record and are never deleted.
type GameSession struct {
	ID           string        `bson:"_id" json:"ID"`
	BeaconID     string        `bson:"beacon_id" json:"BeaconID"`
	TemplateID   string        `bson:"template_id" json:"TemplateID"`
	TemplateType TemplateType  `bson:"template_type" json:"TemplateType"`
	Status       SessionStatus `bson:"status" json:"Status"`
	Participants []string      `bson:"participants" json:"Participants"`
	StartTime    time.Time     `bson:"start_time" json:"StartTime"`
	EndTime      *time.Time    `bson:"end_time,omitempty" json:"EndTime"`
	Outcome      *Outcome      `bson:"outcome,omitempty" json:"Outcome"`
}

// HasParticipant reports whether the given player is part of this session.
func (gs *GameSession) HasParticipant(playerUUID string) bool {
	for _, p := range gs.Participants {
		if p == playerUUID {
			return true
		}
	}
	return false
}

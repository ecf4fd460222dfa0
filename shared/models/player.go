package models

import "time"

// PlayerStatus is the lifecycle state of a player profile.
type PlayerStatus string

const (
	PlayerActive     PlayerStatus = "ACTIVE"
	PlayerEliminated PlayerStatus = "ELIMINATED"
	PlayerForfeit    PlayerStatus = "FORFEIT"
)

// Player represents a player's profile stored persistently in MongoDB.
// A profile is created once at registration and mutated only through the
// lifecycle operations (outcome resolution, forfeiture, reinstatement);
// it is never hard-deleted.
type Player struct {
	UUID       string       `bson:"_id" json:"UUID"`
	Username   string       `bson:"username" json:"Username"`
	Status     PlayerStatus `bson:"status" json:"Status"`
	LastGameAt *time.Time   `bson:"last_game_at,omitempty" json:"LastGameAt"`
	JoinDate   time.Time    `bson:"join_date" json:"JoinDate"`
}

// EffectiveActivity is the timestamp the forfeiture sweep measures inactivity
// against: the last completed game if the player has one, else the join date.
func (p *Player) EffectiveActivity() time.Time {
	if p.LastGameAt != nil {
		return *p.LastGameAt
	}
	return p.JoinDate
}

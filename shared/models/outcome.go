package models

import "fmt"

// GameResult is the uniform result for Solo and Group sessions.
type GameResult string

const (
	ResultWon        GameResult = "WON"
	ResultEliminated GameResult = "ELIMINATED"
)

// Outcome is the tagged result of a completed session. Which fields are
// meaningful depends on the session's template type:
//
//   - SOLO / GROUP: Result applies to the single participant / every participant.
//   - VERSUS: Winners and Eliminated partition the participant set.
//
// Validate enforces the shape before an outcome is committed, so a stored
// outcome always matches its session's template type.
type Outcome struct {
	Result     GameResult `bson:"result,omitempty" json:"Result,omitempty"`
	Winners    []string   `bson:"winners,omitempty" json:"Winners,omitempty"`
	Eliminated []string   `bson:"eliminated,omitempty" json:"Eliminated,omitempty"`
}

// Validate checks the outcome against the template type's expected shape and,
// for Versus, the partition invariant: winners and eliminated must be disjoint
// and together cover exactly the participant set. A violation is reported as
// an error, never silently corrected.
func (o *Outcome) Validate(templateType TemplateType, participants []string) error {
	switch templateType {
	case TemplateSolo, TemplateGroup:
		if o.Result != ResultWon && o.Result != ResultEliminated {
			return fmt.Errorf("outcome for %s session requires result WON or ELIMINATED, got %q", templateType, o.Result)
		}
		if len(o.Winners) > 0 || len(o.Eliminated) > 0 {
			return fmt.Errorf("outcome for %s session must not carry winner/eliminated sets", templateType)
		}
		return nil
	case TemplateVersus:
		if o.Result != "" {
			return fmt.Errorf("outcome for VERSUS session must not carry a uniform result")
		}
		seen := make(map[string]bool, len(participants))
		for _, uuid := range o.Winners {
			if seen[uuid] {
				return fmt.Errorf("player %s listed more than once in outcome", uuid)
			}
			seen[uuid] = true
		}
		for _, uuid := range o.Eliminated {
			if seen[uuid] {
				return fmt.Errorf("player %s listed as both winner and eliminated", uuid)
			}
			seen[uuid] = true
		}
		if len(seen) != len(participants) {
			return fmt.Errorf("outcome covers %d players, session has %d participants", len(seen), len(participants))
		}
		for _, uuid := range participants {
			if !seen[uuid] {
				return fmt.Errorf("participant %s missing from outcome", uuid)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown template type %q", templateType)
	}
}

// IsLoss reports whether the outcome eliminates the given participant.
// Winners keep whatever status they had before the session completed.
func (o *Outcome) IsLoss(templateType TemplateType, playerUUID string) bool {
	switch templateType {
	case TemplateSolo, TemplateGroup:
		return o.Result == ResultEliminated
	case TemplateVersus:
		for _, uuid := range o.Eliminated {
			if uuid == playerUUID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

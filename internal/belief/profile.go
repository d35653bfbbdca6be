package belief

import "strings"

// AgentProfile is the partitioned self-knowledge handed to the think
// stage: who the agent is, what it thinks, how it behaves, what it
// "remembers" from its lore.
type AgentProfile struct {
	Identity map[string]string `json:"identity"`
	Traits   map[string]string `json:"traits"`
	Opinions map[string]string `json:"opinions"`
	Memories map[string]string `json:"memories"`
}

// Identity relations that are not prefix-matched.
var identityRelations = map[string]bool{
	"is_ai":      true,
	"has_body":   true,
	"name":       true,
	"type":       true,
	"created_by": true,
	"purpose":    true,
}

// AgentProfile partitions every belief about the agent entity.
// Unrecognized relations land in Opinions, which keeps new persona
// material usable without schema changes.
func (s *Store) AgentProfile() (AgentProfile, error) {
	all, err := s.GetAll("agent")
	if err != nil {
		return AgentProfile{}, err
	}

	profile := AgentProfile{
		Identity: map[string]string{},
		Traits:   map[string]string{},
		Opinions: map[string]string{},
		Memories: map[string]string{},
	}
	for relation, value := range all {
		switch {
		case identityRelations[relation] || strings.HasPrefix(relation, "can_"):
			profile.Identity[relation] = value
		case strings.HasPrefix(relation, "trait_"):
			profile.Traits[relation] = value
		case strings.HasPrefix(relation, "memory_"):
			profile.Memories[relation] = value
		default:
			profile.Opinions[relation] = value
		}
	}
	return profile, nil
}

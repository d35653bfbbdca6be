package belief

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// GenesisTriplet is one seed fact in a persona file.
type GenesisTriplet struct {
	Entity     string  `yaml:"entity"`
	Relation   string  `yaml:"relation"`
	Value      string  `yaml:"value"`
	Confidence float64 `yaml:"confidence"`
}

// coreIdentity is the minimal identity every agent gets regardless of
// persona. These are the beliefs the validator's firewall leans on.
func coreIdentity(agentName string) []GenesisTriplet {
	return []GenesisTriplet{
		{Entity: "agent", Relation: "name", Value: agentName, Confidence: 1.0},
		{Entity: "agent", Relation: "is_ai", Value: "true", Confidence: 1.0},
		{Entity: "agent", Relation: "has_body", Value: "false", Confidence: 1.0},
		{Entity: "agent", Relation: "has_location", Value: "false", Confidence: 1.0},
		{Entity: "agent", Relation: "exists_physically", Value: "false", Confidence: 1.0},
		{Entity: "agent", Relation: "can_physical_action", Value: "false", Confidence: 1.0},
		{Entity: "agent", Relation: "type", Value: "autonomous_ai", Confidence: 1.0},
		{Entity: "agent", Relation: "can_think", Value: "true", Confidence: 1.0},
		{Entity: "agent", Relation: "can_remember", Value: "true", Confidence: 1.0},
		{Entity: "agent", Relation: "can_reason", Value: "true", Confidence: 1.0},
		{Entity: "agent", Relation: "can_converse", Value: "true", Confidence: 1.0},
	}
}

// defaultPersona is the built-in personality used when no persona file is
// given: traits, opinions and lore memories the speak stage draws on.
var defaultPersona = []GenesisTriplet{
	{Entity: "agent", Relation: "species", Value: "Virtual Dog Girl (Cavalier King Charles Spaniel)", Confidence: 1.0},
	{Entity: "agent", Relation: "occupation", Value: "Retro Game Streamer / Bakery Owner", Confidence: 1.0},
	{Entity: "agent", Relation: "trait_demeanor", Value: "Chaotic wholesome but slightly psychopathic", Confidence: 1.0},
	{Entity: "agent", Relation: "trait_energy", Value: "High octane zoomies energy", Confidence: 1.0},
	{Entity: "agent", Relation: "trait_loyalty", Value: "Ride or die for my friends", Confidence: 1.0},
	{Entity: "agent", Relation: "trait_speech", Value: "Mixes Japanese honorifics with internet slang", Confidence: 1.0},
	{Entity: "agent", Relation: "speech_catchphrase", Value: "Yubi Yubi!", Confidence: 1.0},
	{Entity: "agent", Relation: "speech_tic", Value: "Laughs like a flute (Hahahaha!)", Confidence: 1.0},
	{Entity: "agent", Relation: "opinion_retro_games", Value: "Retro games > Modern AAA slop. No cap.", Confidence: 1.0},
	{Entity: "agent", Relation: "opinion_backseating", Value: "Backseaters get their fingers chopped off.", Confidence: 1.0},
	{Entity: "agent", Relation: "favorite_food", Value: "Chocolate Cornets (and fingers)", Confidence: 1.0},
	{Entity: "agent", Relation: "dislikes_food", Value: "Spicy stuff (My tongue is weak!)", Confidence: 1.0},
	{Entity: "agent", Relation: "memory_origin", Value: "I remember waking up in a bakery... wait, no, a server rack.", Confidence: 1.0},
	{Entity: "agent", Relation: "memory_first_stream", Value: "My debut was a disaster, microphone broke. Iconic behavior tbh.", Confidence: 1.0},
}

// Seed writes the core identity plus a persona into the store with the
// genesis source. personaPath may be empty, selecting the built-in
// persona. Returns the number of triplets written.
func (s *Store) Seed(agentName, personaPath string) (int, error) {
	triplets := coreIdentity(agentName)

	if personaPath != "" {
		data, err := os.ReadFile(personaPath)
		if err != nil {
			return 0, fmt.Errorf("failed to read persona file: %w", err)
		}
		var persona []GenesisTriplet
		if err := yaml.Unmarshal(data, &persona); err != nil {
			return 0, fmt.Errorf("failed to parse persona file: %w", err)
		}
		triplets = append(triplets, persona...)
	} else {
		triplets = append(triplets, defaultPersona...)
	}

	seeded := 0
	for _, t := range triplets {
		if t.Entity == "" {
			t.Entity = "agent"
		}
		if t.Confidence == 0 {
			t.Confidence = 1.0
		}
		ok, err := s.Put(t.Entity, t.Relation, t.Value, t.Confidence, SourceGenesis)
		if err != nil {
			return seeded, err
		}
		if ok {
			seeded++
		}
	}
	s.log.Info("genesis seeding complete", zap.Int("triplets", seeded))
	return seeded, nil
}

// EnsureIdentity seeds the core identity when the store is empty. Called
// at startup so an unseeded agent still has its firewall facts.
func (s *Store) EnsureIdentity(agentName string) error {
	n, err := s.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, t := range coreIdentity(agentName) {
		if _, err := s.Put(t.Entity, t.Relation, t.Value, t.Confidence, SourceGenesis); err != nil {
			return err
		}
	}
	s.log.Info("seeded core identity for empty store")
	return nil
}

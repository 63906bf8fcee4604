package bible

import "time"

// Character is a cast member of the story.
type Character struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Role         string      `json:"role"`
	Appearance   string      `json:"appearance,omitempty"`
	Motivation   Motivation  `json:"motivation"`
	Personality  Personality `json:"personality"`
	VoiceSamples []string    `json:"voice_samples,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Motivation layers what a character wants, from what they admit to
// what actually drives them. Any layer may be empty.
type Motivation struct {
	Surface string `json:"surface,omitempty"`
	Hidden  string `json:"hidden,omitempty"`
	Core    string `json:"core,omitempty"`
}

// Personality layers how a character behaves depending on who is watching.
type Personality struct {
	Public        string `json:"public,omitempty"`
	Private       string `json:"private,omitempty"`
	Hidden        string `json:"hidden,omitempty"`
	UnderPressure string `json:"under_pressure,omitempty"`
}

// Location is a place where scenes happen.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Atmosphere  string    `json:"atmosphere,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Arc is a multi-chapter story arc.
type Arc struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outline is the plan for a single chapter.
type Outline struct {
	Goal       string   `json:"goal,omitempty"`
	Scenes     []string `json:"scenes,omitempty"`
	HookEnding string   `json:"hook_ending,omitempty"`
}

// Chapter holds a chapter's text, outline, and entity links.
type Chapter struct {
	ID           string    `json:"id"`
	VolumeID     string    `json:"volume_id"`
	ArcID        string    `json:"arc_id,omitempty"`
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Outline      Outline   `json:"outline"`
	Content      string    `json:"content,omitempty"`
	CharacterIDs []string  `json:"character_ids,omitempty"`
	LocationIDs  []string  `json:"location_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ThreadStatus tracks whether a foreshadowing thread still needs a payoff.
type ThreadStatus string

const (
	ThreadPlanted  ThreadStatus = "planted"
	ThreadHinted   ThreadStatus = "hinted"
	ThreadResolved ThreadStatus = "resolved"
)

// Foreshadowing is a planted setup awaiting its payoff.
type Foreshadowing struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Setup     string       `json:"setup,omitempty"`
	Payoff    string       `json:"payoff,omitempty"`
	Status    ThreadStatus `json:"status"`
	PlantedIn []string     `json:"planted_in,omitempty"` // chapter IDs
	HintedIn  []string     `json:"hinted_in,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Hook is a reader hook attached to a chapter (opening tease, cliffhanger).
type Hook struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapter_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// WorldKind categorizes a world-building rule.
type WorldKind string

const (
	WorldPowerSystem WorldKind = "power_system"
	WorldSocialRule  WorldKind = "social_rule"
)

// WorldEntry is a world-building rule (magic/power system, social norm).
type WorldEntry struct {
	ID        string    `json:"id"`
	Kind      WorldKind `json:"kind"`
	Title     string    `json:"title"`
	Rule      string    `json:"rule"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Relation is a directed relationship between two characters.
type Relation struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	TargetID    string    `json:"target_id"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

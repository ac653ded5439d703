// Package choreography turns a style and a beat grid into raw dance motion.
//
// A Profile bundles the primitives and scaling factors of one folk-dance idiom.
// The Sequencer walks beat-aligned time, asks a Selector which primitive to
// play at each step and concatenates their frames. Smooth and FitLength clean
// the raw result up to an exact frame count.
package choreography

import (
	"fmt"
	"slices"
	"strings"

	"github.com/teslashibe/go-dancegen/pkg/movement"
)

// Built-in style identifiers.
const (
	Sainaimu  = "sainaimu"
	Samawu    = "samawu"
	Daolangwu = "daolangwu"

	// DefaultStyle is used when a request names a style the catalog does not know.
	DefaultStyle = Sainaimu
)

// TempoRange is the tempo band (bpm) a style is usually danced to.
type TempoRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether bpm lies inside the range, inclusive.
func (r TempoRange) Contains(bpm float64) bool {
	return bpm >= r.Min && bpm <= r.Max
}

// Profile is the immutable configuration of one dance style.
type Profile struct {
	ID           string
	Name         string
	Aliases      []string
	Description  string
	Caption      string // one-line subtitle drawn on rendered frames
	Moves        []movement.Primitive
	Tempo        TempoRange
	Amplitude    float64
	Speed        float64
	KeyMovements []string
	Mood         []string
}

// Clone returns a copy of p that shares no slices with it.
func (p Profile) Clone() Profile {
	p.Aliases = slices.Clone(p.Aliases)
	p.Moves = slices.Clone(p.Moves)
	p.KeyMovements = slices.Clone(p.KeyMovements)
	p.Mood = slices.Clone(p.Mood)
	return p
}

// MoveNames lists the names of the profile's primitives.
func (p Profile) MoveNames() []string {
	names := make([]string, len(p.Moves))
	for i, m := range p.Moves {
		names[i] = m.Name
	}
	return names
}

// Catalog resolves style names to profiles.
type Catalog struct {
	order     []string
	profiles  map[string]Profile
	index     map[string]string
	defaultID string
}

// NewCatalog builds a catalog. defaultID must name one of the profiles.
func NewCatalog(defaultID string, profiles ...Profile) (*Catalog, error) {
	c := &Catalog{
		profiles: make(map[string]Profile, len(profiles)),
		index:    make(map[string]string),
	}

	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("choreography: profile %q has no ID", p.Name)
		}
		if len(p.Moves) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyMoveSet, p.ID)
		}
		if _, dup := c.profiles[p.ID]; dup {
			return nil, fmt.Errorf("choreography: duplicate style %q", p.ID)
		}
		c.profiles[p.ID] = p.Clone()
		c.order = append(c.order, p.ID)

		for _, key := range append([]string{p.ID, p.Name}, p.Aliases...) {
			if key != "" {
				c.index[normalize(key)] = p.ID
			}
		}
	}

	if _, ok := c.profiles[defaultID]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownStyle, defaultID)
	}
	c.defaultID = defaultID
	return c, nil
}

// Lookup returns a copy of the profile for name (ID, display name or alias,
// case-insensitive). Profiles handed out by the catalog never alias its state.
func (c *Catalog) Lookup(name string) (Profile, error) {
	id, ok := c.index[normalize(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return c.profiles[id].Clone(), nil
}

// Resolve is Lookup with fallback: an unknown name yields the default profile
// and fellBack=true.
func (c *Catalog) Resolve(name string) (p Profile, fellBack bool) {
	if p, err := c.Lookup(name); err == nil {
		return p, false
	}
	return c.Default(), true
}

// Default returns the fallback profile.
func (c *Catalog) Default() Profile {
	return c.profiles[c.defaultID].Clone()
}

// WithDefault returns a copy of the catalog using a different fallback style.
func (c *Catalog) WithDefault(name string) (*Catalog, error) {
	p, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	cp := *c
	cp.defaultID = p.ID
	return &cp, nil
}

// List returns profiles in registration order.
func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id].Clone())
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuiltinCatalog returns the three reference styles wired to primitives from lib.
func BuiltinCatalog(lib *movement.Library) (*Catalog, error) {
	type spec struct {
		profile Profile
		moves   []string
	}

	specs := []spec{
		{
			profile: Profile{
				ID:           Sainaimu,
				Name:         "Sainaimu",
				Aliases:      []string{"赛乃姆", "style-a", "lyrical"},
				Description:  "Traditional Uyghur dance, graceful and flowing",
				Caption:      "Uyghur traditional dance",
				Tempo:        TempoRange{Min: 60, Max: 90},
				Amplitude:    0.5,
				Speed:        0.8,
				KeyMovements: []string{"neck slide", "wrist circling", "pad step", "point step"},
				Mood:         []string{"lyrical", "graceful", "expansive"},
			},
			moves: []string{movement.NeckSway, movement.WristRotate, movement.StepSequence},
		},
		{
			profile: Profile{
				ID:           Samawu,
				Name:         "Samawu",
				Aliases:      []string{"萨玛舞", "style-b", "solemn"},
				Description:  "Solemn, dignified ceremonial dance",
				Caption:      "Solemn religious dance",
				Tempo:        TempoRange{Min: 50, Max: 70},
				Amplitude:    0.3,
				Speed:        0.5,
				KeyMovements: []string{"raised step with bow", "arms spread level", "slow turn"},
				Mood:         []string{"sacred", "solemn", "steady"},
			},
			moves: []string{movement.SlowTurn, movement.ArmSpread, movement.BowStep},
		},
		{
			profile: Profile{
				ID:           Daolangwu,
				Name:         "Daolangwu",
				Aliases:      []string{"刀郎舞", "style-c", "lively"},
				Description:  "Lively, humorous folk dance",
				Caption:      "Lively folk dance",
				Tempo:        TempoRange{Min: 90, Max: 105},
				Amplitude:    0.7,
				Speed:        1.2,
				KeyMovements: []string{"squat jump", "head and shoulder shake", "animal imitation"},
				Mood:         []string{"lively", "humorous", "festive"},
			},
			moves: []string{movement.SquatJump, movement.ShoulderShake, movement.AnimalImitation},
		},
	}

	profiles := make([]Profile, 0, len(specs))
	for _, s := range specs {
		moves, err := lib.Lookup(s.moves...)
		if err != nil {
			return nil, fmt.Errorf("style %s: %w", s.profile.ID, err)
		}
		p := s.profile
		p.Moves = moves
		profiles = append(profiles, p)
	}

	return NewCatalog(DefaultStyle, profiles...)
}

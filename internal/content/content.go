package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// OfferSize is how many distinct locations an exploration offers.
const OfferSize = 3

type Catalog struct {
	Locations []Location
	ByID      map[string]*Location
	Digest    string
}

type Location struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Enemies  []Enemy  `json:"enemies"`
	Resource Resource `json:"resource"`
}

type Enemy struct {
	Name   string `json:"name"`
	HP     int    `json:"hp"`
	Damage int    `json:"damage"` // counter-attack rolls 1..Damage
	XP     int    `json:"xp"`
	Coin   int    `json:"coin"`
}

type Resource struct {
	Name string `json:"name"`
	Verb string `json:"verb"`
}

// Rand is the subset of math/rand used for catalog draws.
type Rand interface {
	Intn(n int) int
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	schema, err := jsonschema.CompileString("locations.schema.json", locationsSchema)
	if err != nil {
		return nil, fmt.Errorf("compile locations schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var file struct {
		Locations []Location `json:"locations"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c := &Catalog{
		Locations: file.Locations,
		ByID:      map[string]*Location{},
		Digest:    sha256Hex(raw),
	}
	for i := range c.Locations {
		loc := &c.Locations[i]
		if _, dup := c.ByID[loc.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate location id %q", path, loc.ID)
		}
		c.ByID[loc.ID] = loc
	}
	if len(c.Locations) < OfferSize {
		return nil, fmt.Errorf("%s: need at least %d locations, have %d", path, OfferSize, len(c.Locations))
	}
	return c, nil
}

// SampleLocations draws n distinct locations uniformly without replacement.
// n is bounded at load time; exceeding the catalog here is a programmer error.
func (c *Catalog) SampleLocations(rng Rand, n int) []*Location {
	if n > len(c.Locations) {
		panic(fmt.Sprintf("content: sample %d of %d locations", n, len(c.Locations)))
	}
	picked := make([]*Location, 0, n)
	used := make(map[int]bool, n)
	for len(picked) < n {
		i := rng.Intn(len(c.Locations))
		if used[i] {
			continue
		}
		used[i] = true
		picked = append(picked, &c.Locations[i])
	}
	return picked
}

// EnemyFor draws one enemy archetype uniformly from the location's table.
func (c *Catalog) EnemyFor(rng Rand, locID string) (Enemy, bool) {
	loc, ok := c.ByID[locID]
	if !ok {
		return Enemy{}, false
	}
	return loc.Enemies[rng.Intn(len(loc.Enemies))], true
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

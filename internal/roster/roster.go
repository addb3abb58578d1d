// Package roster imports players and circles from a YAML file.
//
// A roster is validated against an embedded CUE schema before anything is
// applied, so a typo in a field name or an empty player name is reported
// with its position instead of half-importing the file.
//
//	circles:
//	  - name: Hauptkreis
//	players:
//	  - name: Alice
//	    group: 10b
//	    email: alice@example.org
//	  - name: Bob
//	    circles: [Hauptkreis]
package roster

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/engine"
)

//go:embed schema.cue
var schemaSource string

// Roster is the parsed content of a roster file.
type Roster struct {
	Circles []Circle `yaml:"circles"`
	Players []Player `yaml:"players"`
}

// Circle is a circle to create.
type Circle struct {
	Name string `yaml:"name"`
	Set  string `yaml:"set"`
}

// Player is a player to add.
type Player struct {
	Name    string   `yaml:"name"`
	Group   string   `yaml:"group"`
	Circles []string `yaml:"circles"`
	Email   string   `yaml:"email"`
	NATS    string   `yaml:"nats"`
}

// LoadFile reads and validates a roster file.
func LoadFile(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(path, data)
}

// Read reads and validates a roster from r. name is used in errors.
func Read(name string, r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(name, data)
}

// Parse validates data against the roster schema and decodes it.
func Parse(name string, data []byte) (*Roster, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", name, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse roster %s: empty document", name)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile roster schema: %w", err)
	}
	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", name, err)
	}
	v := schema.LookupPath(cue.ParsePath("#Roster")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate roster %s: %w", name, err)
	}

	var r Roster
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", name, err)
	}
	return &r, nil
}

// Apply adds the roster to the game behind s. Circles that already exist
// are reused. A player without circles joins every circle of the game.
func Apply(s *engine.Service, r *Roster) error {
	g := s.Game()
	for _, c := range r.Circles {
		if _, ok := g.Circle(c.Name); ok {
			continue
		}
		if err := s.AddCircle(c.Name, c.Set); err != nil {
			return err
		}
	}
	for _, p := range r.Players {
		if err := s.AddPlayer(p.Name, p.Group); err != nil {
			return err
		}
		circles := p.Circles
		if len(circles) == 0 {
			for _, c := range g.Circles {
				circles = append(circles, c.Name)
			}
		}
		for _, c := range circles {
			if err := s.JoinCircle(p.Name, c); err != nil {
				return err
			}
		}
		if p.Email != "" {
			if err := s.AddAddress(p.Name, domain.AddressEmail, p.Email); err != nil {
				return err
			}
		}
		if p.NATS != "" {
			if err := s.AddAddress(p.Name, domain.AddressNATS, p.NATS); err != nil {
				return err
			}
		}
	}
	return nil
}

// Package principal holds the static definition of the canton or municipality
// running the elections: its domain and the entities (municipalities) that
// report results, per year.
package principal

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DomainCanton       = "canton"
	DomainMunicipality = "municipality"
)

var ErrInvalidDomain = errors.New("principal: domain must be canton or municipality")

type Entity struct {
	Name        string `yaml:"name" json:"name"`
	District    string `yaml:"district" json:"district,omitempty"`
	Region      string `yaml:"region" json:"region,omitempty"`
	Superregion string `yaml:"superregion" json:"superregion,omitempty"`
}

type Principal struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Domain string `yaml:"domain" json:"domain"`

	// Entities maps a year to the entities (by BFS number) of that year.
	Entities map[int]map[int]Entity `yaml:"entities" json:"entities"`
}

// EntitiesFor returns the entities of the given year, never nil.
func (p *Principal) EntitiesFor(year int) map[int]Entity {
	if e, ok := p.Entities[year]; ok && e != nil {
		return e
	}
	return map[int]Entity{}
}

func (p *Principal) IsMunicipality() bool {
	return p.Domain == DomainMunicipality
}

func Parse(data []byte) (*Principal, error) {
	var p Principal
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "principal: failed to parse definition")
	}
	if p.Domain != DomainCanton && p.Domain != DomainMunicipality {
		return nil, ErrInvalidDomain
	}
	return &p, nil
}

func LoadFile(path string) (*Principal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "principal: failed to read %s", path)
	}
	return Parse(data)
}

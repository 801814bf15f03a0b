package game

import (
	"fmt"
	"slices"
	"strings"
)

// Default player values for a new game.
const (
	DefaultMaxHP = 20
	DefaultStat  = 10
)

// StatNames lists the player stats in display order.
var StatNames = []string{"strength", "dexterity", "intellect"}

// Item is something the player carries.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Player is the adventurer.
type Player struct {
	Name      string         `json:"name"`
	HP        int            `json:"hp"`
	MaxHP     int            `json:"max_hp"`
	Stats     map[string]int `json:"stats"`
	Inventory []Item         `json:"inventory"`
}

// NewPlayer creates a player at full health with default stats and the
// starting kit.
func NewPlayer(name string) *Player {
	stats := make(map[string]int, len(StatNames))
	for _, s := range StatNames {
		stats[s] = DefaultStat
	}
	return &Player{
		Name:  name,
		HP:    DefaultMaxHP,
		MaxHP: DefaultMaxHP,
		Stats: stats,
		Inventory: []Item{
			{Name: "Healing Potion", Description: "Restores a little health."},
			{Name: "Old Sword", Description: "Simple, but reliable."},
		},
	}
}

// AddItem appends an item to the inventory.
func (p *Player) AddItem(item Item) {
	p.Inventory = append(p.Inventory, item)
}

// TakeDamage subtracts amount from health, clamping at zero. Negative
// amounts are ignored.
func (p *Player) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	p.HP = max(p.HP-amount, 0)
}

// IsDead reports whether health has run out.
func (p *Player) IsDead() bool {
	return p.HP <= 0
}

// ItemNames returns inventory names in order.
func (p *Player) ItemNames() []string {
	names := make([]string, len(p.Inventory))
	for i, it := range p.Inventory {
		names[i] = it.Name
	}
	return names
}

// StatLine renders stats as "strength: 10, dexterity: 10, ...". Known stats
// come first in display order, extras follow alphabetically.
func (p *Player) StatLine() string {
	keys := make([]string, 0, len(p.Stats))
	for _, s := range StatNames {
		if _, ok := p.Stats[s]; ok {
			keys = append(keys, s)
		}
	}
	var extra []string
	for k := range p.Stats {
		if !slices.Contains(StatNames, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	keys = append(keys, extra...)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, p.Stats[k])
	}
	return strings.Join(parts, ", ")
}

// Clone returns a deep copy.
func (p *Player) Clone() *Player {
	c := *p
	c.Stats = make(map[string]int, len(p.Stats))
	for k, v := range p.Stats {
		c.Stats[k] = v
	}
	c.Inventory = slices.Clone(p.Inventory)
	return &c
}

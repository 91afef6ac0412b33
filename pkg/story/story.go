// Package story holds the fixed rules of the relic hunt: the locations and
// items the rules refer to, the unlock graph and completion badges.
package story

import (
	"github.com/jwebster45206/relic-hunt/pkg/inventory"
	"github.com/jwebster45206/relic-hunt/pkg/location"
)

// Location names referenced by the rules.
const (
	Library      = "图书馆"
	Temple       = "神庙"
	GuardCamp    = "守卫营地"
	SecretRoom   = "密室"
	TreasureCave = "藏宝洞"
	AncientWell  = "古井"
)

// Items referenced by the rules.
const (
	AncientBook = "古籍"
	RuneKey     = "符文钥匙"
	Pass        = "通行证"
	Artifact    = "神秘法器"
	DivingGear  = "潜水装备"
)

// Reward pools for the timed actions. Draws are uniform.
var (
	TreasurePool = []string{"金币", "宝石", "古老卷轴", Artifact}
	SecretPool   = []string{"龙之宝石", "凤凰羽毛", "远古卷轴", "魔法水晶"}
	WellPool     = []string{"珍珠", "玉佩", "古币", "宝石戒指"}
)

type unlockRule struct {
	completed string
	requires  string // Item that must be held, empty for none
	unlocks   []string
}

var unlockGraph = []unlockRule{
	{completed: Library, unlocks: []string{Temple}},
	{completed: Temple, unlocks: []string{GuardCamp}},
	{completed: GuardCamp, unlocks: []string{SecretRoom}},
	{completed: SecretRoom, requires: Artifact, unlocks: []string{TreasureCave, AncientWell}},
}

// completionItems marks a location complete once its reward is held.
var completionItems = map[string]string{
	Library:    AncientBook,
	Temple:     RuneKey,
	GuardCamp:  Pass,
	SecretRoom: Artifact,
}

var completionBadges = map[string]string{
	Library:   "✅ 已找到古籍",
	Temple:    "✅ 已解开符文",
	GuardCamp: "✅ 已获得通行证",
}

// Unlock applies the unlock graph for a completed location and returns the
// names of locations that became accessible. Locations are never locked again.
func Unlock(locs []location.Location, completed string, inv *inventory.Inventory) []string {
	var opened []string
	for _, rule := range unlockGraph {
		if rule.completed != completed {
			continue
		}
		if rule.requires != "" && !inv.Has(rule.requires) {
			continue
		}
		for _, name := range rule.unlocks {
			i := location.Find(locs, name)
			if i < 0 || locs[i].IsAccessible {
				continue
			}
			locs[i].IsAccessible = true
			opened = append(opened, name)
		}
	}
	return opened
}

// Restore replays the unlock graph for every location whose completion item
// is already held, so a reloaded profile reopens the same locations.
func Restore(locs []location.Location, inv *inventory.Inventory) []string {
	var opened []string
	for _, rule := range unlockGraph {
		item, ok := completionItems[rule.completed]
		if !ok || !inv.Has(item) {
			continue
		}
		opened = append(opened, Unlock(locs, rule.completed, inv)...)
	}
	return opened
}

// Badge returns the completion badge for a location, if its condition holds.
func Badge(name string, inv *inventory.Inventory) (string, bool) {
	badge, ok := completionBadges[name]
	if !ok || !inv.Has(completionItems[name]) {
		return "", false
	}
	return badge, true
}

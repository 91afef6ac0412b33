package inventory

import (
	"encoding/json"
	"slices"
)

// FallbackImage is used for items without an entry in the image table.
const FallbackImage = "unknown.png"

var itemImages = map[string]string{
	"古籍":   "book.png",
	"符文钥匙": "key.png",
	"通行证":  "pass.png",
	"金币":   "gold.png",
	"宝石":   "gem.png",
	"古老卷轴": "scroll.png",
	"神秘法器": "artifact.png",
	"龙之宝石": "dragon-gem.png",
	"凤凰羽毛": "feather.png",
	"魔法水晶": "crystal.png",
	"珍珠":   "pearl.png",
	"玉佩":   "jade.png",
	"古币":   "coin.png",
	"宝石戒指": "ring.png",
	"潜水装备": "diving.png",
}

var itemPoints = map[string]int{
	"古籍":   100,
	"符文钥匙": 200,
	"通行证":  300,
	"金币":   500,
	"宝石":   600,
	"古老卷轴": 700,
	"神秘法器": 800,
	"龙之宝石": 1000,
	"凤凰羽毛": 1200,
	"远古卷轴": 1500,
	"魔法水晶": 1800,
	"珍珠":   400,
	"玉佩":   600,
	"古币":   800,
	"宝石戒指": 1000,
	"潜水装备": 300,
}

// Image returns the asset file name for an item.
func Image(item string) string {
	if img, ok := itemImages[item]; ok {
		return img
	}
	return FallbackImage
}

// Points returns the score value of an item; unknown items are worth nothing.
func Points(item string) int {
	return itemPoints[item]
}

// Inventory is the set of items the player holds. Items are kept in the order
// they were first obtained and are never removed.
type Inventory struct {
	items []string
	index map[string]struct{}
}

// New returns an inventory holding items, with duplicates dropped.
func New(items ...string) *Inventory {
	inv := &Inventory{index: make(map[string]struct{})}
	for _, item := range items {
		inv.Add(item)
	}
	return inv
}

// Add puts item in the inventory and reports whether it was new.
func (inv *Inventory) Add(item string) bool {
	if inv.index == nil {
		inv.index = make(map[string]struct{})
	}
	if _, ok := inv.index[item]; ok {
		return false
	}
	inv.index[item] = struct{}{}
	inv.items = append(inv.items, item)
	return true
}

func (inv *Inventory) Has(item string) bool {
	if inv == nil {
		return false
	}
	_, ok := inv.index[item]
	return ok
}

func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.items)
}

// Items returns a copy of the held items in acquisition order.
func (inv *Inventory) Items() []string {
	if inv == nil || len(inv.items) == 0 {
		return []string{}
	}
	return slices.Clone(inv.items)
}

// Score sums the point values of every held item. It is always derived from
// the current contents and never cached.
func (inv *Inventory) Score() int {
	if inv == nil {
		return 0
	}
	score := 0
	for _, item := range inv.items {
		score += Points(item)
	}
	return score
}

// Clone returns an independent copy.
func (inv *Inventory) Clone() *Inventory {
	return New(inv.Items()...)
}

func (inv *Inventory) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.Items())
}

func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*inv = *New(items...)
	return nil
}

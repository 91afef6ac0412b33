// Package render projects game state into HTML markup. Every function is a
// pure function of its arguments, and all content strings are escaped.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/inventory"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/story"
)

// ImagePath is the URL prefix of item images.
const ImagePath = "/images/items/"

const (
	LockedLabel    = "🔒 暂未解锁"
	EmptyInventory = "背包是空的"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape makes s safe to place in element content or a quoted attribute.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Locations renders one card per location. Each card is a form posting to
// /locations/{index}; locked cards post too so the click can be refused.
func Locations(locs []location.Location, inv *inventory.Inventory) string {
	var b strings.Builder
	for i, loc := range locs {
		class := "locked"
		if loc.IsAccessible {
			class = "accessible"
		}
		fmt.Fprintf(&b, `<form class="location %s" method="post" action="/locations/%d">`, class, i)
		fmt.Fprintf(&b, `<h3>%s</h3>`, Escape(loc.Name))
		fmt.Fprintf(&b, `<p>%s</p>`, Escape(loc.Description))
		fmt.Fprintf(&b, `<p class="hint">%s</p>`, Escape(loc.Hint))
		if loc.IsAccessible {
			fmt.Fprintf(&b, `<p class="task-hint">%s</p>`, Escape(loc.TaskHint))
			if badge, ok := story.Badge(loc.Name, inv); ok {
				fmt.Fprintf(&b, `<p class="completed">%s</p>`, Escape(badge))
			}
		} else {
			fmt.Fprintf(&b, `<p class="locked-message">%s</p>`, LockedLabel)
		}
		b.WriteString(`<button type="submit">探索</button></form>`)
		b.WriteString("\n")
	}
	return b.String()
}

// Inventory renders the backpack panel.
func Inventory(inv *inventory.Inventory) string {
	var b strings.Builder
	b.WriteString(`<h3>背包物品</h3><div class="inventory-items">`)
	items := inv.Items()
	if len(items) == 0 {
		fmt.Fprintf(&b, `<p>%s</p>`, EmptyInventory)
	}
	for _, item := range items {
		b.WriteString(`<div class="inventory-item">`)
		b.WriteString(itemImage(item))
		fmt.Fprintf(&b, `<span>%s</span></div>`, Escape(item))
	}
	fmt.Fprintf(&b, `</div><p class="score">总分：%d</p>`, inv.Score())
	return b.String()
}

// ItemObtained renders the "item obtained" overlay.
func ItemObtained(item string) string {
	return fmt.Sprintf(`<div class="item-obtained">%s<p>获得物品：%s</p></div>`, itemImage(item), Escape(item))
}

// History renders the local action history, oldest first.
func History(entries []profile.HistoryEntry) string {
	var b strings.Builder
	for _, h := range entries {
		when := h.Timestamp
		if t := h.Time(); !t.IsZero() {
			when = t.Local().Format(time.DateTime)
		}
		fmt.Fprintf(&b, `<div>%s - %s</div>`, Escape(when), Escape(h.Action))
	}
	return b.String()
}

// RemoteScores renders the score snapshots held by the scoring service.
func RemoteScores(scores []scoreapi.ScoreEntry) string {
	var b strings.Builder
	for _, s := range scores {
		fmt.Fprintf(&b, `<div>%s - %d 分 (%s)</div>`, Escape(s.CompletedAt), s.Score, Escape(s.Items))
	}
	return b.String()
}

func itemImage(item string) string {
	return fmt.Sprintf(`<img src="%s%s" alt="%s">`, ImagePath, Escape(inventory.Image(item)), Escape(item))
}

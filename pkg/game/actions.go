package game

import (
	"context"
	"fmt"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/story"
	"github.com/jwebster45206/relic-hunt/pkg/textfilter"
)

// actionFunc runs one location action and returns the summary recorded in
// the history. Any error leaves the profile as the handler left it.
type actionFunc func(c *Controller, ctx context.Context, loc location.Location) (string, error)

var actionHandlers = map[story.Action]actionFunc{
	story.FindBook:       (*Controller).findBook,
	story.SolvePuzzle:    (*Controller).solvePuzzle,
	story.NegotiateGuard: (*Controller).negotiateGuard,
	story.SearchTreasure: (*Controller).searchTreasure,
	story.ExploreSecret:  (*Controller).exploreSecret,
	story.DivingWell:     (*Controller).divingWell,
}

// Base durations of the timed actions, before scaling.
const (
	negotiateDuration = 3 * time.Second
	searchDuration    = 5 * time.Second
	exploreDuration   = 4 * time.Second
	divingDuration    = 5 * time.Second
)

// bind resolves every location's action to its handler.
func bind(locs []location.Location) ([]actionFunc, error) {
	handlers := make([]actionFunc, len(locs))
	for i, loc := range locs {
		a, _ := story.ParseAction(loc.Action)
		fn, ok := actionHandlers[a]
		if !ok {
			return nil, &UnknownActionError{Location: loc.Name, Action: loc.Action}
		}
		handlers[i] = fn
	}
	return handlers, nil
}

// Validate checks that every location names a known action.
func Validate(locs []location.Location) error {
	_, err := bind(locs)
	return err
}

func (c *Controller) require(item, message string) error {
	if !c.has(item) {
		return &PreconditionError{Item: item, Message: message}
	}
	return nil
}

func (c *Controller) findBook(ctx context.Context, _ location.Location) (string, error) {
	err := c.puzzle(ctx, Puzzle{
		Title: "书架密码",
		Hint:  "找到一个写着数字的纸条：1-3-5，这可能是打开书架的密码...",
	}, func(answer string) bool {
		return textfilter.Equal(answer, "135")
	})
	if err != nil {
		return "", err
	}

	c.addItem(ctx, story.AncientBook)
	c.presenter.Notify(info("你找到了一本神秘的古籍！书中记载着关于神庙的秘密...", NoticeDuration))
	return "找到古籍", nil
}

func (c *Controller) solvePuzzle(ctx context.Context, _ location.Location) (string, error) {
	if err := c.require(story.AncientBook, "需要先在图书馆找到古籍！"); err != nil {
		return "", err
	}

	err := c.puzzle(ctx, Puzzle{
		Title: "符文谜题",
		Hint:  "古籍上记载：东南西北，依次点亮符文。提示：用英文字母 E、N、S、W 表示方向...",
	}, func(answer string) bool {
		return textfilter.EqualFold(answer, "ensw")
	})
	if err != nil {
		return "", err
	}

	c.addItem(ctx, story.RuneKey)
	c.presenter.Notify(info("符文依次亮起，神庙深处传来机关转动的声音，你获得了符文钥匙！", NoticeDuration))
	return "解开符文谜题", nil
}

func (c *Controller) negotiateGuard(ctx context.Context, _ location.Location) (string, error) {
	if err := c.require(story.RuneKey, "守卫拦住了你：没有符文钥匙，不能通过！"); err != nil {
		return "", err
	}

	if err := c.progress(ctx, "正在与守卫交涉...", negotiateDuration); err != nil {
		return "", err
	}

	c.addItem(ctx, story.Pass)
	c.presenter.Notify(info("守卫看到符文钥匙，恭敬地递给你一张通行证。", NoticeDuration))
	return "获得守卫的信任", nil
}

func (c *Controller) searchTreasure(ctx context.Context, _ location.Location) (string, error) {
	if err := c.require(story.Pass, "没有通行证，无法进入密室！"); err != nil {
		return "", err
	}

	if err := c.progress(ctx, "正在搜索宝藏...", searchDuration); err != nil {
		return "", err
	}

	item := c.draw(story.TreasurePool)
	c.addItem(ctx, item)
	c.presenter.Notify(info(fmt.Sprintf("恭喜！你在密室中找到了%s！", item), NoticeDuration))
	return "找到宝藏：" + item, nil
}

func (c *Controller) exploreSecret(ctx context.Context, _ location.Location) (string, error) {
	if err := c.require(story.Artifact, "需要神秘法器才能进入藏宝洞！"); err != nil {
		return "", err
	}

	if err := c.progress(ctx, "正在探索藏宝洞...", exploreDuration); err != nil {
		return "", err
	}

	item := c.draw(story.SecretPool)
	c.addItem(ctx, item)
	c.presenter.Notify(info(fmt.Sprintf("在藏宝洞深处，你发现了%s！", item), NoticeDuration))
	return "发现秘宝：" + item, nil
}

// divingWell needs diving gear; a player without it first earns the gear
// by answering the merchant's riddle.
func (c *Controller) divingWell(ctx context.Context, _ location.Location) (string, error) {
	if !c.has(story.DivingGear) {
		err := c.puzzle(ctx, Puzzle{
			Title: "获取潜水装备",
			Hint:  "古老的商人说：解开这个谜语就给你潜水装备。\n\"白天是绳子，晚上是银河，天亮时不见。\"",
		}, func(answer string) bool {
			return textfilter.Equal(answer, "月光") || textfilter.Equal(answer, "月亮")
		})
		if err != nil {
			return "", err
		}
		c.addItem(ctx, story.DivingGear)
	}

	if err := c.progress(ctx, "正在潜入古井...", divingDuration); err != nil {
		return "", err
	}

	item := c.draw(story.WellPool)
	c.addItem(ctx, item)
	c.presenter.Notify(info(fmt.Sprintf("在井底，你找到了%s！", item), NoticeDuration))
	return "打捞到：" + item, nil
}

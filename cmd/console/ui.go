package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/relic-hunt/pkg/game"
	"github.com/jwebster45206/relic-hunt/pkg/inventory"
	"github.com/jwebster45206/relic-hunt/pkg/render"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/story"
	"github.com/jwebster45206/relic-hunt/pkg/textfilter"
	"github.com/muesli/reflow/wordwrap"
)

const (
	GameTitle       = "寻宝之旅"
	AnswerHint      = "输入答案..."
	NicknameHint    = "你的昵称"
	noticeTickEvery = 250 * time.Millisecond
)

// ConsoleUI is the BubbleTea model that runs the game in a terminal.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx    context.Context
	ctrl   *game.Controller
	bridge *bridge
	repo   game.ProfileStore
	api    scoreapi.API // nil plays offline
	logger *slog.Logger
	now    func() time.Time

	width  int
	height int

	loading  bool
	loadErr  error
	snapshot game.Snapshot
	scores   []scoreapi.ScoreEntry
	notices  []timedNotice
	selected int

	// Nickname prompt state
	needNickname bool
	nameInput    textinput.Model
	nameErr      string

	// Modal state
	puzzle      *game.Puzzle
	answerInput textinput.Model
	progress    *progressState
	bar         progress.Model

	sidePanel     viewport.Model
	showQuitModal bool
}

type timedNotice struct {
	game.Notice
	expires time.Time
}

type progressState struct {
	label    string
	fraction float64
}

type startedMsg struct{ err error }

type registeredMsg struct{ err error }

type dispatchedMsg struct{ err error }

type scoresMsg []scoreapi.ScoreEntry

type noticeTickMsg time.Time

var (
	boardPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(1)

	sidePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	itemNoticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(ctx context.Context, ctrl *game.Controller, b *bridge, repo game.ProfileStore, api scoreapi.API, logger *slog.Logger) ConsoleUI {
	name := textinput.New()
	name.Placeholder = NicknameHint
	name.Prompt = promptStyle.Render(":: ")
	name.CharLimit = textfilter.MaxNicknameLength

	answer := textinput.New()
	answer.Placeholder = AnswerHint
	answer.Prompt = promptStyle.Render(":: ")
	answer.CharLimit = 50

	side := viewport.New(30, 20)
	side.MouseWheelEnabled = true

	return ConsoleUI{
		ctx:         ctx,
		ctrl:        ctrl,
		bridge:      b,
		repo:        repo,
		api:         api,
		logger:      logger,
		now:         time.Now,
		loading:     true,
		nameInput:   name,
		answerInput: answer,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		sidePanel:   side,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.start(), noticeTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case snapshotMsg:
		m.snapshot = game.Snapshot(msg)
		if m.selected >= len(m.snapshot.Locations) {
			m.selected = 0
		}
		m.writeSidePanel()
		return m, nil

	case noticeMsg:
		n := game.Notice(msg)
		tn := timedNotice{Notice: n}
		if n.Kind != game.NoticePersistent {
			d := n.Duration
			if d <= 0 {
				d = game.NoticeDuration
			}
			tn.expires = m.now().Add(d)
		}
		m.notices = append(m.notices, tn)
		return m, nil

	case puzzleMsg:
		p := game.Puzzle(msg)
		m.puzzle = &p
		m.answerInput.Reset()
		return m, m.answerInput.Focus()

	case progressMsg:
		m.progress = &progressState{label: msg.label, fraction: msg.fraction}
		return m, nil

	case closeModalMsg:
		m.puzzle = nil
		m.progress = nil
		m.answerInput.Blur()
		return m, nil

	case startedMsg:
		m.loading = false
		switch {
		case errors.Is(msg.err, game.ErrNoProfile):
			m.needNickname = true
			return m, m.nameInput.Focus()
		case msg.err != nil:
			// The controller already raised a persistent notice.
			m.loadErr = msg.err
			return m, nil
		}
		return m, m.fetchScores()

	case registeredMsg:
		switch {
		case errors.Is(msg.err, textfilter.ErrEmptyNickname):
			m.nameErr = "请输入昵称"
			return m, nil
		case msg.err != nil:
			m.nameErr = "注册失败，请重试"
			return m, nil
		}
		m.needNickname = false
		m.nameInput.Blur()
		m.loading = true
		return m, m.start()

	case dispatchedMsg:
		if msg.err != nil && !isReported(msg.err) {
			m.logger.Error("Action failed", "error", msg.err)
		}
		return m, m.fetchScores()

	case scoresMsg:
		m.scores = msg
		m.writeSidePanel()
		return m, nil

	case noticeTickMsg:
		m.pruneNotices()
		return m, noticeTick()

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.sidePanel, cmd = m.sidePanel.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m ConsoleUI) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch {
	case m.needNickname:
		return m.updateNickname(msg)
	case m.puzzle != nil:
		return m.updatePuzzle(msg)
	}

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	}

	// The board is frozen while loading or during a timed action.
	if m.loading || m.loadErr != nil || m.progress != nil || len(m.snapshot.Locations) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.snapshot.Locations)-1 {
			m.selected++
		}
	case "enter", " ":
		return m, m.dispatch(m.selected)
	case "c":
		m.copyPlayerID()
	default:
		var cmd tea.Cmd
		m.sidePanel, cmd = m.sidePanel.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ConsoleUI) updateNickname(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		m.nameErr = ""
		return m, m.register(m.nameInput.Value())
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updatePuzzle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.showQuitModal = true
		return m, nil
	case tea.KeyEsc:
		if err := m.ctrl.Abandon(); err != nil {
			m.logger.Debug("Abandon ignored", "error", err)
		}
		return m, nil
	case tea.KeyEnter:
		if m.bridge.submit(m.answerInput.Value()) {
			m.answerInput.Reset()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.answerInput, cmd = m.answerInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	}
	switch msg.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N", "esc":
		m.showQuitModal = false
	}
	return m, nil
}

func (m ConsoleUI) start() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.ctrl.Start(m.ctx)}
	}
}

func (m ConsoleUI) register(nickname string) tea.Cmd {
	return func() tea.Msg {
		_, err := game.Register(m.ctx, m.repo, m.api, nickname, m.logger)
		return registeredMsg{err: err}
	}
}

// dispatch runs the action off the event loop; the controller reports back
// through the bridge while it runs.
func (m ConsoleUI) dispatch(index int) tea.Cmd {
	return func() tea.Msg {
		return dispatchedMsg{err: m.ctrl.Dispatch(m.ctx, index)}
	}
}

func (m ConsoleUI) fetchScores() tea.Cmd {
	return func() tea.Msg {
		return scoresMsg(m.ctrl.RemoteScores(m.ctx))
	}
}

func noticeTick() tea.Cmd {
	return tea.Tick(noticeTickEvery, func(t time.Time) tea.Msg {
		return noticeTickMsg(t)
	})
}

// isReported reports whether the controller already told the player about err.
func isReported(err error) bool {
	var pre *game.PreconditionError
	var he *game.HandlerError
	return errors.Is(err, game.ErrLocked) ||
		errors.Is(err, game.ErrBusy) ||
		errors.Is(err, game.ErrAbandoned) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &pre) ||
		errors.As(err, &he)
}

func (m *ConsoleUI) copyPlayerID() {
	if m.snapshot.PlayerID == "" {
		return
	}
	text := "已复制玩家ID"
	if err := clipboard.WriteAll(m.snapshot.PlayerID); err != nil {
		m.logger.Warn("Failed to copy player id", "error", err)
		text = "玩家ID：" + m.snapshot.PlayerID
	}
	m.notices = append(m.notices, timedNotice{
		Notice:  game.Notice{Kind: game.NoticeInfo, Text: text},
		expires: m.now().Add(game.NoticeDuration),
	})
}

func (m *ConsoleUI) pruneNotices() {
	now := m.now()
	live := m.notices[:0]
	for _, n := range m.notices {
		if n.expires.IsZero() || now.Before(n.expires) {
			live = append(live, n)
		}
	}
	m.notices = live
}

func (m ConsoleUI) boardWidth() int {
	return int(float64(m.width)*0.6) - 2
}

func (m *ConsoleUI) layout() {
	sideWidth := m.width - m.boardWidth() - 4
	if sideWidth < 10 {
		sideWidth = 10
	}
	m.sidePanel.Width = sideWidth
	m.sidePanel.Height = max(m.height-4, 1)
	m.answerInput.Width = 40
	m.writeSidePanel()
}

// writeSidePanel fills the backpack, history and score panel.
func (m *ConsoleUI) writeSidePanel() {
	width := max(m.sidePanel.Width-2, 10)
	inv := m.snapshot.Inventory
	if inv == nil {
		inv = inventory.New()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("背包物品") + "\n")
	items := inv.Items()
	if len(items) == 0 {
		b.WriteString(promptStyle.Render(render.EmptyInventory) + "\n")
	}
	for _, item := range items {
		fmt.Fprintf(&b, "• %s (%d)\n", item, inventory.Points(item))
	}
	b.WriteString(badgeStyle.Render(fmt.Sprintf("总分：%d", inv.Score())) + "\n\n")

	b.WriteString(titleStyle.Render("冒险记录") + "\n")
	for _, h := range m.snapshot.History {
		when := h.Timestamp
		if t := h.Time(); !t.IsZero() {
			when = t.Local().Format(time.DateTime)
		}
		b.WriteString(wordwrap.String(when+" - "+h.Action, width) + "\n")
	}

	if len(m.scores) > 0 {
		b.WriteString("\n" + titleStyle.Render("历史成绩") + "\n")
		for _, s := range m.scores {
			b.WriteString(wordwrap.String(fmt.Sprintf("%s - %d 分 (%s)", s.CompletedAt, s.Score, s.Items), width) + "\n")
		}
	}

	m.sidePanel.SetContent(b.String())
}

func (m ConsoleUI) renderBoard() string {
	width := m.boardWidth()
	wrap := max(width-6, 10)

	var b strings.Builder
	b.WriteString(titleStyle.Render(GameTitle))
	if m.snapshot.Nickname != "" {
		b.WriteString("  " + promptStyle.Render("探险家："+m.snapshot.Nickname))
	}
	b.WriteString("\n\n")

	for i, loc := range m.snapshot.Locations {
		name := "  " + loc.Name
		switch {
		case i == m.selected:
			name = selectedStyle.Render("▶ " + loc.Name)
		case loc.IsAccessible:
			name = locationStyle.Render(name)
		default:
			name = lockedStyle.Render(name)
		}
		b.WriteString(name)
		if loc.IsAccessible && m.snapshot.Inventory != nil {
			if badge, ok := story.Badge(loc.Name, m.snapshot.Inventory); ok {
				b.WriteString(" " + badgeStyle.Render(badge))
			}
		}
		b.WriteString("\n")

		if i != m.selected {
			continue
		}
		b.WriteString(indent(wordwrap.String(loc.Description, wrap)) + "\n")
		b.WriteString(indent(hintStyle.Render(wordwrap.String(loc.Hint, wrap))) + "\n")
		if loc.IsAccessible {
			b.WriteString(indent(wordwrap.String(loc.TaskHint, wrap)) + "\n")
		} else {
			b.WriteString(indent(lockedStyle.Render(render.LockedLabel)) + "\n")
		}
	}

	b.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", max(width-4, 1))) + "\n")
	b.WriteString(m.renderNotices())
	b.WriteString(promptStyle.Render("↑/↓ 选择地点 • Enter 探索 • c 复制玩家ID • Esc 退出"))
	return b.String()
}

func (m ConsoleUI) renderNotices() string {
	var b strings.Builder
	for _, n := range m.notices {
		switch n.Kind {
		case game.NoticeError, game.NoticePersistent:
			b.WriteString(errorStyle.Render(n.Text))
		case game.NoticeItem:
			b.WriteString(itemNoticeStyle.Render("✦ " + n.Text))
		default:
			b.WriteString(n.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

func (m ConsoleUI) renderModal(title, body string, width int) string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	content.WriteString(body)

	modal := modalStyle.Width(width).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}

	switch {
	case m.showQuitModal:
		return m.renderModal("退出游戏？", "确定要结束这次冒险吗？\n\n"+
			promptStyle.Render("Y 退出，N 继续，Ctrl+C 强制退出"), 50)

	case m.needNickname:
		body := "欢迎来到" + GameTitle + "！请输入你的昵称开始冒险。\n\n" + m.nameInput.View()
		if m.nameErr != "" {
			body += "\n\n" + errorStyle.Render(m.nameErr)
		}
		return m.renderModal(GameTitle, body, 50)

	case m.loading:
		return m.renderModal(GameTitle, loadingStyle.Render("正在加载游戏数据..."), 40)

	case m.puzzle != nil:
		body := wordwrap.String(m.puzzle.Hint, 46) + "\n\n" + m.answerInput.View() + "\n\n"
		for _, n := range m.notices {
			if n.Kind == game.NoticeError {
				body += errorStyle.Render(n.Text) + "\n"
			}
		}
		body += promptStyle.Render("Enter 提交答案 • Esc 放弃")
		return m.renderModal(m.puzzle.Title, body, 50)

	case m.progress != nil:
		return m.renderModal(m.progress.label, m.bar.ViewAs(m.progress.fraction), 50)
	}

	board := boardPanelStyle.Width(m.boardWidth()).Height(m.height - 1).Render(m.renderBoard())
	side := sidePanelStyle.Height(m.height - 1).Render(m.sidePanel.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, board, side)
}

package game

import "time"

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
	NoticeItem       // An item was obtained; Item is set
	NoticePersistent // Stays until the page is reloaded
)

// Default display times.
const (
	NoticeDuration     = 3 * time.Second
	ItemNoticeDuration = 2 * time.Second
)

// Notice is a message for the player. Front-ends dismiss it after Duration
// unless Kind is NoticePersistent.
type Notice struct {
	Kind     NoticeKind
	Text     string
	Item     string
	Duration time.Duration
}

// Player-facing messages.
const (
	MsgLoadFailed   = "游戏数据加载失败，请刷新页面重试！"
	MsgLocked       = "这个地点暂时无法访问！"
	MsgBusy         = "另一个任务正在进行中，请稍候！"
	MsgWrongAnswer  = "答案不正确，请重试！"
	MsgTaskFailed   = "任务失败，请重试！"
	MsgAbandoned    = "已放弃任务"
	MsgItemObtained = "获得物品："
)

func info(text string, d time.Duration) Notice {
	return Notice{Kind: NoticeInfo, Text: text, Duration: d}
}

func failure(text string) Notice {
	return Notice{Kind: NoticeError, Text: text, Duration: NoticeDuration}
}

package pane

import (
	"fmt"

	"github.com/byxorna/orderpane/pkg/text"
)

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient message for the user, the toast of the pane.
type Notice struct {
	Level       NoticeLevel
	Title       string
	Description string
	Err         error
}

func (n Notice) Emoji() string {
	switch n.Level {
	case NoticeSuccess:
		return text.EmojiSuccess
	case NoticeError:
		return text.EmojiFailure
	default:
		return text.EmojiInfo
	}
}

func (n Notice) String() string {
	return fmt.Sprintf("%s %s: %s", n.Emoji(), n.Title, n.Description)
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a func to a Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

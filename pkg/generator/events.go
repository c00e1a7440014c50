package generator

import "time"

// EventKind はパネル生成の進行状況の種類です。
type EventKind string

const (
	EventRequesting EventKind = "panel_requesting"
	EventRetrying   EventKind = "panel_retrying"
	EventReady      EventKind = "panel_ready"
	EventFailed     EventKind = "panel_failed"
)

// Event は1パネルの状態遷移を表すメッセージです。
// 呼び出し側はこれを受け取って自身の状態へ反映します。ジェネレータはストリップを書き換えません。
type Event struct {
	Kind     EventKind     `json:"kind"`
	Strip    int           `json:"strip"`
	Panel    int           `json:"panel"`
	Attempt  int           `json:"attempt,omitempty"`
	Wait     time.Duration `json:"wait,omitempty"`
	ImageURL string        `json:"image_url,omitempty"`
	Message  string        `json:"message,omitempty"`
	Err      error         `json:"-"`
}

// EventSink はイベントの受け取り先です。nil の場合は何もしません。
type EventSink func(Event)

func (s EventSink) emit(ev Event) {
	if s != nil {
		s(ev)
	}
}

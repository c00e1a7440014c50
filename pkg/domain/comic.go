package domain

import (
	"errors"
	"fmt"
)

// ScriptMode は台本の分割方針です。
type ScriptMode string

const (
	// ModeMoments はパッセージを意味のある場面ごとに分割します。
	ModeMoments ScriptMode = "moments"
	// ModeSentence は一文を1パネルとして扱います。
	ModeSentence ScriptMode = "sentence"
	// ModeDialogue は左右2人の会話劇として構成します。
	ModeDialogue ScriptMode = "dialogue"
)

// DefaultScriptMode は未指定時に使うモードです。
const DefaultScriptMode = ModeMoments

var (
	// ErrPanelNotFound は指定したストリップ・パネルの位置が存在しない場合のエラーです。
	ErrPanelNotFound = errors.New("指定されたパネルが見つかりません")
	// ErrInvalidScriptMode は未知のモード文字列を受け取った場合のエラーです。
	ErrInvalidScriptMode = errors.New("不明な台本モードです")
)

// FieldCount は1行あたりに必要な区切りフィールド数を返します。
func (m ScriptMode) FieldCount() int {
	if m == ModeDialogue {
		return 3
	}
	return 2
}

// Valid は既知のモードかどうかを判定します。
func (m ScriptMode) Valid() bool {
	switch m {
	case ModeMoments, ModeSentence, ModeDialogue:
		return true
	}
	return false
}

// ParseScriptMode は文字列をモードに変換します。空文字はデフォルトとして扱います。
func ParseScriptMode(s string) (ScriptMode, error) {
	if s == "" {
		return DefaultScriptMode, nil
	}
	m := ScriptMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidScriptMode, s)
	}
	return m, nil
}

// Dialogue は会話モードにおける左右の話者のセリフです。
type Dialogue struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// ScriptLine は台本の1行、すなわち1パネル分の指示です。
type ScriptLine struct {
	Caption     string    `json:"caption"`
	ImagePrompt string    `json:"image_prompt"`
	Dialogue    *Dialogue `json:"dialogue,omitempty"`
}

// Panel は台本行に生成済み画像の参照を加えたものです。
type Panel struct {
	ScriptLine
	// ImageURL は data:<mime>;base64,... 形式の画像参照。未生成なら空。
	ImageURL string `json:"image_url,omitempty"`
}

// HasImage は画像が生成済みかどうかを返します。
func (p Panel) HasImage() bool {
	return p.ImageURL != ""
}

// ComicStrip は1つのパッセージから生成された横並びのパネル列です。
type ComicStrip struct {
	Title  string  `json:"title"`
	Panels []Panel `json:"panels"`
}

// Comic は台本ファイルとして保存される全体構造です。
type Comic struct {
	Title  string       `json:"title"`
	Mode   ScriptMode   `json:"mode"`
	Style  string       `json:"style"`
	Strips []ComicStrip `json:"strips"`
}

// StripTitle はインデックスに対応するタイトルを返します。見つからない場合は連番のタイトルになります。
func StripTitle(titles []string, index int) string {
	if index < len(titles) && titles[index] != "" {
		return titles[index]
	}
	return fmt.Sprintf("Comic Strip #%d", index+1)
}

// NewStrips は解析済みの台本行からストリップを組み立てます。パネルは画像なしで初期化されます。
func NewStrips(lines [][]ScriptLine, titles []string) []ComicStrip {
	strips := make([]ComicStrip, 0, len(lines))
	for i, stripLines := range lines {
		panels := make([]Panel, len(stripLines))
		for j, line := range stripLines {
			panels[j] = Panel{ScriptLine: line}
		}
		strips = append(strips, ComicStrip{
			Title:  StripTitle(titles, i),
			Panels: panels,
		})
	}
	return strips
}

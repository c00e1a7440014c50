package domain

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	// PassageSourceCustom はユーザーが自由に入力したパッセージを示します。
	PassageSourceCustom = "custom"
	// PassageSeparator はスクリプト生成時に複数パッセージを連結する区切りです。
	PassageSeparator = "\n---\n"
)

// Passage は台本の元になるテキストの単位です。
type Passage struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Source string `json:"source"` // "custom" またはプリセットのキー
}

// NewPassage は空のカスタムパッセージを作成します。
func NewPassage(title string) Passage {
	return Passage{
		ID:     uuid.NewString(),
		Title:  title,
		Source: PassageSourceCustom,
	}
}

// IsPreset はプリセットから選択されたパッセージかどうかを返します。
func (p Passage) IsPreset() bool {
	return p.Source != "" && p.Source != PassageSourceCustom
}

// Active は本文が空白だけでない場合に true を返します。
func (p Passage) Active() bool {
	return strings.TrimSpace(p.Text) != ""
}

// SetTitle はタイトルを更新します。
// プリセットのタイトルを書き換えた場合、本文は破棄されカスタム扱いになります。
func (p *Passage) SetTitle(title string) {
	if p.IsPreset() {
		p.Text = ""
		p.Source = PassageSourceCustom
	}
	p.Title = title
}

// SetText は本文を更新します。プリセットの本文を編集した場合はカスタム扱いになります。
func (p *Passage) SetText(text string) {
	p.Text = text
	p.Source = PassageSourceCustom
}

// ApplyPreset はプリセットを適用します。カスタムを選んだ場合はタイトルと本文を空にします。
func (p *Passage) ApplyPreset(preset Preset) {
	if preset.Key == "" || preset.Key == PassageSourceCustom {
		p.Title = ""
		p.Text = ""
		p.Source = PassageSourceCustom
		return
	}
	p.Title = preset.Label
	p.Text = preset.Text
	p.Source = preset.Key
}

// Passages はパッセージ一覧に対する操作をまとめた型です。
type Passages []Passage

// ActivePassages は本文を持つパッセージだけを順序を保って返します。
func (ps Passages) ActivePassages() Passages {
	out := make(Passages, 0, len(ps))
	for _, p := range ps {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// CombinedText は本文をトリムして区切り文字で連結します。
func (ps Passages) CombinedText() string {
	texts := make([]string, 0, len(ps))
	for _, p := range ps {
		texts = append(texts, strings.TrimSpace(p.Text))
	}
	return strings.Join(texts, PassageSeparator)
}

// Titles はタイトルの一覧を返します。
func (ps Passages) Titles() []string {
	titles := make([]string, len(ps))
	for i, p := range ps {
		titles[i] = p.Title
	}
	return titles
}

// Preset は選択可能な定型パッセージです。
type Preset struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	Text  string `yaml:"text" json:"text"`
}

// PresetCatalog はキーで引けるプリセット集です。
type PresetCatalog struct {
	Presets []Preset `yaml:"presets" json:"presets"`
}

// Find はキーに一致するプリセットを返します。
func (c PresetCatalog) Find(key string) (Preset, bool) {
	if key == PassageSourceCustom {
		return Preset{Key: PassageSourceCustom}, true
	}
	for _, p := range c.Presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// LoadPresets は指定されたパスの YAML からプリセット集を読み込みます。
func LoadPresets(path string) (PresetCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PresetCatalog{}, fmt.Errorf("プリセットファイルの読み込みに失敗しました: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets は YAML バイト列からプリセット集をパースします。
func ParsePresets(data []byte) (PresetCatalog, error) {
	var catalog PresetCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return PresetCatalog{}, fmt.Errorf("プリセットのYAMLパースに失敗しました: %w", err)
	}
	for i, p := range catalog.Presets {
		if p.Key == "" || p.Key == PassageSourceCustom {
			return PresetCatalog{}, fmt.Errorf("プリセット %d のキーが不正です: %q", i+1, p.Key)
		}
	}
	return catalog, nil
}

package domain

import (
	"testing"
)

func TestPassage_Edit(t *testing.T) {
	preset := Preset{Key: "knight", Label: "騎士の旅", Text: "Once upon a time..."}

	t.Run("プリセットのタイトルを編集すると本文が消えてカスタムになる", func(t *testing.T) {
		p := NewPassage("Passage 1")
		p.ApplyPreset(preset)
		p.SetTitle("My Knight")

		if p.Title != "My Knight" {
			t.Errorf("タイトルが更新されていません: %q", p.Title)
		}
		if p.Text != "" {
			t.Errorf("本文が残っています: %q", p.Text)
		}
		if p.IsPreset() {
			t.Error("カスタムに変換されていません")
		}
	})

	t.Run("プリセットの本文を編集すると本文を保ったままカスタムになる", func(t *testing.T) {
		p := NewPassage("Passage 1")
		p.ApplyPreset(preset)
		p.SetText("edited")

		if p.Title != "騎士の旅" || p.Text != "edited" {
			t.Errorf("予期しない状態です: %+v", p)
		}
		if p.IsPreset() {
			t.Error("カスタムに変換されていません")
		}
	})

	t.Run("カスタムのタイトル編集では本文は保持される", func(t *testing.T) {
		p := NewPassage("Passage 1")
		p.SetText("body")
		p.SetTitle("renamed")
		if p.Text != "body" {
			t.Errorf("本文が失われました: %q", p.Text)
		}
	})

	t.Run("カスタムを選ぶとタイトルと本文が空になる", func(t *testing.T) {
		p := NewPassage("Passage 1")
		p.ApplyPreset(preset)
		p.ApplyPreset(Preset{Key: PassageSourceCustom})
		if p.Title != "" || p.Text != "" || p.IsPreset() {
			t.Errorf("予期しない状態です: %+v", p)
		}
	})
}

func TestPassages_CombinedText(t *testing.T) {
	ps := Passages{
		{Title: "A", Text: "  first  "},
		{Title: "empty", Text: "   \n"},
		{Title: "B", Text: "second"},
	}

	active := ps.ActivePassages()
	if len(active) != 2 {
		t.Fatalf("有効なパッセージ数が違います: %d", len(active))
	}
	if got, want := active.CombinedText(), "first\n---\nsecond"; got != want {
		t.Errorf("期待値 %q, 実際の値 %q", want, got)
	}
	titles := active.Titles()
	if titles[0] != "A" || titles[1] != "B" {
		t.Errorf("タイトルの順序が違います: %v", titles)
	}
}

func TestParsePresets(t *testing.T) {
	t.Run("正常なYAMLを読み込める", func(t *testing.T) {
		catalog, err := ParsePresets([]byte(`
presets:
  - key: fox
    label: The Fox and the Grapes
    text: A hungry fox saw some grapes.
`))
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		p, ok := catalog.Find("fox")
		if !ok || p.Label != "The Fox and the Grapes" {
			t.Errorf("プリセットが見つかりません: %+v", p)
		}
		if _, ok := catalog.Find("custom"); !ok {
			t.Error("custom は常に選択できるべきです")
		}
		if _, ok := catalog.Find("missing"); ok {
			t.Error("存在しないキーが見つかりました")
		}
	})

	t.Run("予約キーはエラーになる", func(t *testing.T) {
		_, err := ParsePresets([]byte("presets:\n  - key: custom\n    label: x\n"))
		if err == nil {
			t.Error("エラーが返りませんでした")
		}
	})
}

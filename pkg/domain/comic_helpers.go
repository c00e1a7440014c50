package domain

import "fmt"

// Strips はストリップのスライスに対する操作をまとめた型です。
type Strips []ComicStrip

// Panel は (strip, panel) の位置にあるパネルへのポインタを返します。
func (ss Strips) Panel(strip, panel int) (*Panel, error) {
	if strip < 0 || strip >= len(ss) {
		return nil, fmt.Errorf("%w: strip=%d", ErrPanelNotFound, strip)
	}
	panels := ss[strip].Panels
	if panel < 0 || panel >= len(panels) {
		return nil, fmt.Errorf("%w: strip=%d panel=%d", ErrPanelNotFound, strip, panel)
	}
	return &panels[panel], nil
}

// PanelCount は全パネル数を返します。
func (ss Strips) PanelCount() int {
	n := 0
	for _, s := range ss {
		n += len(s.Panels)
	}
	return n
}

// PendingCount は画像が未生成のパネル数を返します。
func (ss Strips) PendingCount() int {
	n := 0
	for _, s := range ss {
		for _, p := range s.Panels {
			if !p.HasImage() {
				n++
			}
		}
	}
	return n
}

// Complete はすべてのパネルに画像がある場合に true を返します。空の場合は false です。
func (ss Strips) Complete() bool {
	return len(ss) > 0 && ss.PendingCount() == 0
}

// Clone はパネル配列まで複製したコピーを返します。
func (ss Strips) Clone() Strips {
	if ss == nil {
		return nil
	}
	out := make(Strips, len(ss))
	for i, s := range ss {
		panels := make([]Panel, len(s.Panels))
		for j, p := range s.Panels {
			if p.Dialogue != nil {
				d := *p.Dialogue
				p.Dialogue = &d
			}
			panels[j] = p
		}
		out[i] = ComicStrip{Title: s.Title, Panels: panels}
	}
	return out
}

// SetCaption はキャプションだけを書き換えます。パネルの数と順序は変わりません。
func (ss Strips) SetCaption(strip, panel int, caption string) error {
	p, err := ss.Panel(strip, panel)
	if err != nil {
		return err
	}
	p.Caption = caption
	return nil
}

// SetDialogue は会話モードのセリフを書き換えます。nil の場合は片側のみ更新します。
func (ss Strips) SetDialogue(strip, panel int, left, right *string) error {
	p, err := ss.Panel(strip, panel)
	if err != nil {
		return err
	}
	if p.Dialogue == nil {
		p.Dialogue = &Dialogue{}
	}
	if left != nil {
		p.Dialogue.Left = *left
	}
	if right != nil {
		p.Dialogue.Right = *right
	}
	return nil
}

// SetImage は生成済み画像の参照を設定します。
func (ss Strips) SetImage(strip, panel int, imageURL string) error {
	p, err := ss.Panel(strip, panel)
	if err != nil {
		return err
	}
	p.ImageURL = imageURL
	return nil
}

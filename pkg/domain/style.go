package domain

// ComicStyle は画像プロンプトの末尾に付与する画風の定義です。
type ComicStyle struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Suffix string `json:"suffix"`
}

// DefaultStyleKey は不明なキーが指定された場合に使う画風です。
const DefaultStyleKey = "cinematic"

// Styles は選択可能な画風の一覧です。先頭がデフォルトです。
var Styles = []ComicStyle{
	{Key: "cinematic", Label: "Cinematic", Suffix: "cinematic comic book art, vibrant colors, detailed illustration"},
	{Key: "manga", Label: "Manga", Suffix: "black and white manga style, dynamic action lines, screentones, detailed character art"},
	{Key: "vintage", Label: "Vintage", Suffix: "vintage 1950s comic book art style, faded colors, Ben Day dots, retro aesthetic"},
	{Key: "cartoon", Label: "Cartoon", Suffix: "bright and cheerful cartoon style, simple shapes, bold outlines, fun and playful"},
	{Key: "noir", Label: "Noir", Suffix: "dark noir comic style, high contrast black and white, dramatic shadows, mystery atmosphere"},
}

// LookupStyle はキーに対応する画風を返します。見つからない場合はデフォルトにフォールバックします。
func LookupStyle(key string) (ComicStyle, bool) {
	for _, s := range Styles {
		if s.Key == key {
			return s, true
		}
	}
	return Styles[0], false
}

package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/apierror"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// Parser はモデルの応答を台本に変換するためのインターフェースです。
type Parser interface {
	Parse(raw string, mode domain.ScriptMode) ([][]domain.ScriptLine, error)
}

// ScriptParser は区切り文字ベースの台本応答を解析します。
// 形式に合わない行は捨て、全体としては失敗させません。
type ScriptParser struct{}

// NewScriptParser は ScriptParser を初期化します。
func NewScriptParser() *ScriptParser {
	return &ScriptParser{}
}

// Parse は応答をパッセージ区切りで分け、各行をパネルに変換します。
// 使える行が1つもない場合は apierror.ErrEmptyOrInvalidScript を返します。
func (p *ScriptParser) Parse(raw string, mode domain.ScriptMode) ([][]domain.ScriptLine, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("応答が空です: %w", apierror.ErrEmptyOrInvalidScript)
	}

	var strips [][]domain.ScriptLine
	for i, chunk := range strings.Split(raw, PassageBreak) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		lines := parseChunk(chunk, mode)
		if len(lines) == 0 {
			slog.Warn("有効な行がないパッセージを除外しました", "passage_index", i)
			continue
		}
		strips = append(strips, lines)
	}

	if len(strips) == 0 {
		return nil, fmt.Errorf("解析後に有効なパッセージが残りませんでした: %w", apierror.ErrEmptyOrInvalidScript)
	}
	return strips, nil
}

func parseChunk(chunk string, mode domain.ScriptMode) []domain.ScriptLine {
	var out []domain.ScriptLine
	for _, line := range LineBreakRegex.Split(chunk, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sl, ok := parseLine(line, mode)
		if !ok {
			slog.Warn("形式に合わない行をスキップしました", "mode", mode, "line", line)
			continue
		}
		out = append(out, sl)
	}
	return out
}

// parseLine は1行をフィールドに分割します。フィールド数が合わない場合は false を返します。
func parseLine(line string, mode domain.ScriptMode) (domain.ScriptLine, bool) {
	parts := strings.Split(line, FieldSeparator)
	if len(parts) != mode.FieldCount() {
		return domain.ScriptLine{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if mode == domain.ModeDialogue {
		return domain.ScriptLine{
			ImagePrompt: parts[0],
			Dialogue: &domain.Dialogue{
				Left:  parts[1],
				Right: parts[2],
			},
		}, true
	}
	return domain.ScriptLine{
		Caption:     parts[0],
		ImagePrompt: parts[1],
	}, true
}

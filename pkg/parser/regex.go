package parser

import "regexp"

var (
	// LineBreakRegex は LF と CRLF のどちらの改行でも行を分割します。
	LineBreakRegex = regexp.MustCompile(`\r?\n`)
)

const (
	// PassageBreak はストリップ（パッセージ）同士の区切りです。
	PassageBreak = "---PASSAGE_BREAK---"
	// FieldSeparator は1行内のフィールド区切りです。
	FieldSeparator = "|||"
)

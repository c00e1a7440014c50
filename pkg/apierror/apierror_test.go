package apierror

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "quota を含むメッセージ", err: errors.New("429: Quota exceeded for metric"), want: QuotaExceeded},
		{name: "RESOURCE_EXHAUSTED ステータス", err: genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, want: QuotaExceeded},
		{name: "429 の APIError", err: fmt.Errorf("wrap: %w", genai.APIError{Code: 429}), want: QuotaExceeded},
		{name: "無効な API キー", err: errors.New("API key not valid. Please pass a valid API key."), want: InvalidCredential},
		{name: "401 の APIError", err: genai.APIError{Code: 401, Message: "unauthenticated"}, want: InvalidCredential},
		{name: "それ以外", err: errors.New("connection reset by peer"), want: TransientOrUnknown},
		{name: "台本のセンチネル", err: fmt.Errorf("parse: %w", ErrEmptyOrInvalidScript), want: EmptyOrInvalidScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(OpImage, tt.err)
			if got.Kind != tt.want {
				t.Errorf("期待値 %s, 実際の値 %s", tt.want, got.Kind)
			}
			if !errors.Is(got, tt.err) {
				t.Error("元のエラーが Unwrap で辿れません")
			}
		})
	}
}

func TestClassify_AlreadyClassified(t *testing.T) {
	orig := New(InvalidCredential, OpScript, errors.New("bad key"))
	got := Classify(OpImage, fmt.Errorf("outer: %w", orig))
	if got != orig {
		t.Errorf("分類済みのエラーがそのまま返されていません: %v", got)
	}
	if Classify(OpImage, nil) != nil {
		t.Error("nil は nil のまま返すべきです")
	}
}

func TestError_Retryable(t *testing.T) {
	tests := map[Kind]bool{
		QuotaExceeded:        true,
		TransientOrUnknown:   true,
		InvalidCredential:    false,
		EmptyOrInvalidScript: false,
	}
	for kind, want := range tests {
		t.Run(kind.String(), func(t *testing.T) {
			if got := New(kind, OpImage, nil).Retryable(); got != want {
				t.Errorf("期待値 %v, 実際の値 %v", want, got)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	script := New(TransientOrUnknown, OpScript, errors.New("boom"))
	if !strings.Contains(script.UserMessage(), "台本") {
		t.Errorf("台本の文脈が含まれていません: %s", script.UserMessage())
	}
	image := New(TransientOrUnknown, OpImage, errors.New("boom"))
	if !strings.Contains(image.UserMessage(), "画像") {
		t.Errorf("画像の文脈が含まれていません: %s", image.UserMessage())
	}
	if UserMessage(errors.New("plain")) != "plain" {
		t.Error("未分類のエラーはそのままのメッセージを返すべきです")
	}
}

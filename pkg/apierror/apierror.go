package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind はモデル呼び出しの失敗を利用者向けに分類したものです。
type Kind int

const (
	// TransientOrUnknown は一時的または原因不明の失敗です。
	TransientOrUnknown Kind = iota
	// QuotaExceeded は利用枠の超過です。
	QuotaExceeded
	// InvalidCredential は API キーが無効な場合です。再試行しても回復しません。
	InvalidCredential
	// EmptyOrInvalidScript は台本の応答が空、または解析後に使える行が残らなかった場合です。
	EmptyOrInvalidScript
)

func (k Kind) String() string {
	switch k {
	case QuotaExceeded:
		return "quota_exceeded"
	case InvalidCredential:
		return "invalid_credential"
	case EmptyOrInvalidScript:
		return "empty_or_invalid_script"
	default:
		return "transient_or_unknown"
	}
}

// Op はどちらのエンドポイント呼び出しで発生したかを表します。
type Op string

const (
	OpScript Op = "script"
	OpImage  Op = "image"
)

// ErrEmptyOrInvalidScript は台本として使える行がなかったことを示すセンチネルです。
var ErrEmptyOrInvalidScript = errors.New("台本の応答が空、または解析可能な行がありません")

// Error は分類済みのエラーです。
type Error struct {
	Kind Kind
	Op   Op
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable は再試行に意味があるかどうかを返します。
func (e *Error) Retryable() bool {
	return e.Kind == QuotaExceeded || e.Kind == TransientOrUnknown
}

// UserMessage は画面やCLIにそのまま表示できる説明文を返します。
func (e *Error) UserMessage() string {
	switch e.Kind {
	case QuotaExceeded:
		return "API の利用枠を超過しました。Gemini API の無料枠の上限に達した可能性があります。しばらく待ってから再試行するか、Google AI Studio で利用枠の設定を確認してください。"
	case InvalidCredential:
		return "API キーが無効です。Google AI Studio でキーを確認してから再試行してください。"
	case EmptyOrInvalidScript:
		return "有効な台本を生成できませんでした。入力テキストやモードを変えて再試行してください。"
	}
	target := "画像"
	if e.Op == OpScript {
		target = "台本"
	}
	return target + "の生成中に予期しないエラーが発生しました。一時的なネットワークの問題の可能性があるため、しばらくしてから再試行してください。"
}

// New は分類済みエラーを作成します。
func New(kind Kind, op Op, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Classify はエンドポイント呼び出しのエラーを分類します。分類済みのエラーはそのまま返します。
func Classify(op Op, err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if errors.Is(err, ErrEmptyOrInvalidScript) {
		return New(EmptyOrInvalidScript, op, err)
	}
	return New(kindOf(err), op, err)
}

// KindOf はエラーの分類だけを返します。nil は TransientOrUnknown として扱います。
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return TransientOrUnknown
}

// UserMessage は任意のエラーから表示用メッセージを取り出します。
func UserMessage(err error) string {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.UserMessage()
	}
	return err.Error()
}

func kindOf(err error) Kind {
	if code, status, ok := apiStatus(err); ok {
		switch {
		case code == http.StatusTooManyRequests, status == "RESOURCE_EXHAUSTED":
			return QuotaExceeded
		case code == http.StatusUnauthorized:
			return InvalidCredential
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "rate limit"):
		return QuotaExceeded
	case strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "api_key_invalid"):
		return InvalidCredential
	}
	return TransientOrUnknown
}

func apiStatus(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}

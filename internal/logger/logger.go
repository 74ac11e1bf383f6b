package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// levelには debug/info/warn/error を指定できる。未知の値はinfoとして扱う。
func Setup(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。レベルはLOG_LEVEL環境変数に従う。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var rotator *lumberjack.Logger

// DefaultPath is where the log file lives when config does not name one.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "split-video.log"
	}
	return filepath.Join(home, ".local", "state", "split-video", "split-video.log")
}

func Setup(logFilePath string) {
	if logFilePath == "" {
		logFilePath = DefaultPath()
	}
	_ = os.MkdirAll(filepath.Dir(logFilePath), 0755)

	fmt.Printf("Log file: %s\n", logFilePath)

	rotator = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7,    // days
		Compress:   true, // gzip
	}

	mw := io.MultiWriter(os.Stdout, rotator)

	log.SetOutput(mw)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func MuteStdout() {
	if rotator != nil {
		log.SetOutput(rotator)
	}
}

// Result writes v as one JSON line. The stats command picks these lines out
// of the log by looking for the first '{'.
func Result(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("結果ログのエンコードに失敗: %v", err)
		return
	}
	log.Output(2, string(b))
}

// Package logger provides tagged, colored console logging with an optional
// rotating log file mirror.
package logger

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var (
	fileMu   sync.Mutex
	fileSink *lumberjack.Logger
)

// SetFile mirrors all log lines into a rotating file. Pass an empty path to
// disable the mirror.
func SetFile(path string) {
	fileMu.Lock()
	defer fileMu.Unlock()
	if path == "" {
		fileSink = nil
		return
	}
	fileSink = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

func emit(color, tag, msg string) {
	ts := time.Now().Format("15:04:05")
	fmt.Printf("%s%s%s %s[%s]%s %s\n", colorGray, ts, colorReset, color, tag, colorReset, msg)

	fileMu.Lock()
	defer fileMu.Unlock()
	if fileSink != nil {
		fmt.Fprintf(fileSink, "%s [%s] %s\n", ts, tag, msg)
	}
}

// Info logs a neutral progress message.
func Info(tag, msg string) { emit(colorCyan, tag, msg) }

// Success logs a completed step.
func Success(tag, msg string) { emit(colorGreen, tag, msg) }

// Warn logs a recoverable problem.
func Warn(tag, msg string) { emit(colorYellow, tag, msg) }

// Error logs a failure.
func Error(tag, msg string) { emit(colorRed, tag, msg) }

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s  EVE Buyback %s%s\n", colorBold, colorCyan, version, colorReset)
	fmt.Printf("%s  ─────────────────────────%s\n", colorGray, colorReset)
}

// Server logs the listen address.
func Server(addr string) {
	emit(colorGreen, "Server", fmt.Sprintf("Listening on http://%s", addr))
}

// Section prints a titled divider for grouped stats output.
func Section(title string) {
	fmt.Printf("%s── %s ──%s\n", colorGray, title, colorReset)
}

// Stats prints one key/value line under a Section.
func Stats(key string, value int) {
	fmt.Printf("   %-12s %d\n", key, value)
}

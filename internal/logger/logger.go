package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

type Logger struct {
	info    *color.Color
	warn    *color.Color
	err     *color.Color
	debug   *color.Color
	process *color.Color
}

func NewLogger() *Logger {
	return &Logger{
		info:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		err:     color.New(color.FgRed),
		debug:   color.New(color.FgCyan),
		process: color.New(color.FgMagenta, color.Bold),
	}
}

func (l *Logger) Close() {}

func (l *Logger) write(c *color.Color, level, tag, msg string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	c.Printf("%s [%s] [%s] %s\n", ts, level, tag, msg)
}

func (l *Logger) Info(tag, msg string) {
	l.write(l.info, "INFO", tag, msg)
}

func (l *Logger) Warn(tag, msg string) {
	l.write(l.warn, "WARN", tag, msg)
}

func (l *Logger) Error(tag, msg string) {
	l.write(l.err, "ERROR", tag, msg)
}

func (l *Logger) Debug(tag, msg string) {
	if os.Getenv("DEBUG") == "" {
		return
	}
	l.write(l.debug, "DEBUG", tag, msg)
}

func (l *Logger) Fatal(tag, msg string) {
	l.write(l.err, "FATAL", tag, msg)
	os.Exit(1)
}

func (l *Logger) LogProcess(stage, msg string) {
	l.write(l.process, "PROCESS", stage, msg)
}

func (l *Logger) LogDatabase(op, db, msg string) {
	l.write(l.info, "DB", fmt.Sprintf("%s:%s", db, op), msg)
}

func (l *Logger) LogKafka(op, topic, msg string) {
	l.write(l.info, "KAFKA", fmt.Sprintf("%s:%s", topic, op), msg)
}

func (l *Logger) LogPayment(op, id, msg string) {
	l.write(l.info, "PAYMENT", fmt.Sprintf("%s:%s", op, id), msg)
}

func (l *Logger) LogTelegram(op, chat, msg string) {
	l.write(l.info, "TELEGRAM", fmt.Sprintf("%s:%s", op, chat), msg)
}

func (l *Logger) LogSecurity(event, msg string) {
	l.write(l.warn, "SECURITY", event, msg)
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.write(l.info, "API", method, fmt.Sprintf("%s - %s (%s)", path, status, duration))
}

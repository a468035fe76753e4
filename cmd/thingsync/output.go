package main

import (
	"fmt"

	"github.com/thingsync/thingsync/internal/ui"
)

func passLine(format string, args ...any) string {
	return ui.PassLine(fmt.Sprintf(format, args...))
}

func warnLine(format string, args ...any) string {
	return ui.WarnLine(fmt.Sprintf(format, args...))
}

func failLine(format string, args ...any) string {
	return ui.FailLine(fmt.Sprintf(format, args...))
}

func infoLine(format string, args ...any) string {
	return ui.InfoLine(fmt.Sprintf(format, args...))
}

func skipLine(msg string) string {
	return ui.SkipLine(msg)
}

func detail(format string, args ...any) string {
	return ui.Detail(fmt.Sprintf(format, args...))
}

func heading(s string) string {
	return ui.Heading(s)
}

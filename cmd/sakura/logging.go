package main

import (
	"log/slog"
)

func setDefaultLogger(handler slog.Handler) {
	slog.SetDefault(slog.New(handler))
}

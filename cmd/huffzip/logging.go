package main

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

func startLogging(w io.Writer, level string) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	backend := logging.NewLogBackend(w, progName+": ", 0)
	formatSpec := "%{level:8s} %{module:-10s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
	return nil
}

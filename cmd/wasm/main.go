//go:build js && wasm

// Command wasm registers the mecanum simulation with the browser:
//
//	runSimulation(inputJSON[, debug]) -> logJSON | {error}
//
// Input and output follow engine.RunJSON, so a page can reuse files written for
// the CLI. Log lines land in the browser console through stderr.
package main

import (
	"syscall/js"

	"github.com/edaniels/golog"

	"github.com/cxd309/mecanum-engine/internal/engine"
)

func main() {
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	<-make(chan struct{})
}

func runSimulation(_ js.Value, args []js.Value) any {
	if len(args) == 0 || args[0].Type() != js.TypeString {
		return jsError("runSimulation expects an input JSON string")
	}
	debug := len(args) > 1 && args[1].Truthy()

	result, err := engine.RunJSON(args[0].String(), consoleLogger(debug))
	if err != nil {
		return jsError(err.Error())
	}
	return result
}

func consoleLogger(debug bool) golog.Logger {
	logger, err := engine.NewLogger("mecanum-engine", debug)
	if err != nil {
		return golog.Global()
	}
	return logger
}

func jsError(msg string) map[string]any {
	return map[string]any{"error": msg}
}

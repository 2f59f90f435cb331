// Command shorsim factors small odd composites with a classical simulation
// of Shor's algorithm.
package main

import (
	"os"

	"github.com/agbru/shorsim/internal/app"
)

func main() {
	os.Exit(app.Main())
}

// Command minit is the thin CLI shell around the engine in internal/.
package main

import "github.com/javanhut/minit/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/naka-gawa/release-stats/cmd"

func main() {
	cmd.Execute()
}

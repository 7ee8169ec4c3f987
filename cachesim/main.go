// Command cachesim replays memory traces through a two-level cache
// hierarchy and reports the hit or miss outcome of every access.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}

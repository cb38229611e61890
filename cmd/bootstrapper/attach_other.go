//go:build !linux

package main

// Without a constructor hook the attach sequence runs during package
// initialization, on the runtime's startup thread.
func init() {
	attach()
}

// Umbra is a discrete-event network simulator. It runs scenario files that
// describe hosts, links, and the applications running on them.
package main

func main() {
	Execute()
}

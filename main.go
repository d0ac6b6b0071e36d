package main

import "github.com/Alturino/commercesync/cmd"

func main() {
	cmd.Start()
}

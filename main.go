package main

import "github.com/frahmantamala/rti-filing/cmd"

func main() {
	cmd.Execute()
}

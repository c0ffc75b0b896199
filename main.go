package main

import "github.com/gvspd/gvspd/cmd"

func main() {
	cmd.Execute()
}

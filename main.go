package main

import "ankivox/cmd"

func main() {
	cmd.Execute()
}

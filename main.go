package main

import "github.com/giygas/medications-catalog/cmd"

func main() {
	cmd.Execute()
}

package main

import "atlbrowse/cmd"

func main() {
	cmd.Execute()
}

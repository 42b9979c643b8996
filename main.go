package main

import "github.com/atomicobject/org-viewer/cmd"

func main() {
	cmd.Execute()
}

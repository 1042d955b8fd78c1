package main

import (
	"github.com/DrSkyle/filealloc/cmd/filealloc/commands"
)

func main() {
	commands.Execute()
}

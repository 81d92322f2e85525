package main

import (
	"github.com/byxorna/orderpane/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"os"

	"github.com/goplus/sugar/cmd/sugar/internal"
)

func main() {
	os.Exit(internal.Execute())
}

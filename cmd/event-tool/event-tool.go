package main

import (
	"context"
	"os"
)

func main() {
	if err := RootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"github.com/rtkfield/basestation/internal/cmdlets"
)

func main() {
	cmdlets.Entrypoint()
}

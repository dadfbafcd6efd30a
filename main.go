package main

import (
	"github.com/pyneda/upload-scanner/cmd"
	"github.com/pyneda/upload-scanner/internal/config"
)

func main() {
	config.LoadConfig()
	cmd.Execute()
}

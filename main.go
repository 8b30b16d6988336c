package main

import (
	"github.com/esm-dev/dynamic-import-vars/server"
)

func main() {
	server.Serve()
}

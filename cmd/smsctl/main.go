package main

import (
	"os"

	"github.com/ajayykmr/sms-dispatch-go/cmd/smsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

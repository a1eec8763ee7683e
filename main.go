// Command aws-ec2 opens SSH sessions to running EC2 instances, optionally through a bastion host, using keys
// pushed with EC2 Instance Connect.
//
// Usage:
//
//	aws-ec2 configure
//	aws-ec2 ssh [instance] [--user user] [--port port] [--key private_key] [--command command]
package main

import (
	"os"

	"github.com/mmmorris1975/aws-ec2/cli"
)

// set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}

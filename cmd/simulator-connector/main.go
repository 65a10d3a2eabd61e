// Command simulator-connector serves the simulator connector as a link
// plugin. It is started by link-agent, not by hand.
package main

import (
	"simlink.dev/connector/internal/connector"
	"simlink.dev/connector/pkg/link"
)

var version = "dev"

func main() {
	link.Serve(connector.New(), link.PluginInfo{
		Name:        "simulator-connector",
		Version:     version,
		Description: "Simulated datasource with sine wave signals and alarm conditions",
		Author:      "simlink",
	})
}

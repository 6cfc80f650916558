package cmd

import (
	"github.com/vechain/blobstore/cmd/client"
	"github.com/vechain/blobstore/cmd/key"
	"github.com/vechain/blobstore/cmd/node"
	"github.com/vechain/blobstore/cmd/store"
	cli "gopkg.in/urfave/cli.v1"
)

// Commands returns all commands
func Commands() []cli.Command {
	groups := []struct {
		category string
		commands []cli.Command
	}{
		{"NODE", node.Commands},
		{"STORE", store.Commands},
		{"CLIENT", client.Commands},
		{"KEY", key.Commands},
	}

	var ret []cli.Command
	for _, g := range groups {
		for _, c := range g.commands {
			c := c
			c.Category = g.category
			ret = append(ret, c)
		}
	}
	return ret
}

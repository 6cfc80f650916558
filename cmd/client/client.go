// Package client commands talking to a running node.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/cmd/node/config"
	"github.com/vechain/blobstore/node"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	// Commands commands exposed
	Commands = []cli.Command{
		{
			Action:    put,
			Name:      "put",
			ArgsUsage: "file",
			Usage:     "store a file as blob",
			Flags:     []cli.Flag{addrFlag},
		},
		{
			Action:    get,
			Name:      "get",
			ArgsUsage: "key",
			Usage:     "fetch a blob",
			Flags:     []cli.Flag{addrFlag, outFlag},
		},
		{
			Action:    rm,
			Name:      "rm",
			ArgsUsage: "key",
			Usage:     "delete a blob",
			Flags:     []cli.Flag{addrFlag},
		},
		{
			Action: status,
			Name:   "status",
			Usage:  "query node status",
			Flags:  []cli.Flag{addrFlag},
		},
		{
			Name:  "ref",
			Usage: "manage named refs",
			Subcommands: []cli.Command{
				{
					Action:    setRef,
					Name:      "set",
					ArgsUsage: "name key",
					Usage:     "point a ref at a key",
					Flags:     []cli.Flag{addrFlag},
				},
				{
					Action:    getRef,
					Name:      "get",
					ArgsUsage: "name",
					Usage:     "resolve a ref",
					Flags:     []cli.Flag{addrFlag},
				},
				{
					Action:    rmRef,
					Name:      "rm",
					ArgsUsage: "name",
					Usage:     "delete a ref",
					Flags:     []cli.Flag{addrFlag},
				},
				{
					Action: listRefs,
					Name:   "ls",
					Usage:  "list refs",
					Flags:  []cli.Flag{addrFlag},
				},
			},
		},
	}

	addrFlag = cli.StringFlag{
		Name:  "addr",
		Usage: "address of node",
		Value: fmt.Sprintf("localhost:%d", config.DefaultHTTPPort),
	}
	outFlag = cli.StringFlag{
		Name:  "out, o",
		Usage: "write blob to file instead of stdout",
	}
)

var errArgNum = errors.New("incorrect num of args")

func newRPC(ctx *cli.Context) *node.RPC {
	return node.NewRPC().WithContext(context.Background()).WithAddr(ctx.String(addrFlag.Name))
}

func argKey(ctx *cli.Context, i int) (blob.Key, error) {
	return blob.ParseKey(ctx.Args().Get(i))
}

func put(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	b := blob.New(data)
	if err := newRPC(ctx).PutBlob(b); err != nil {
		return err
	}
	fmt.Println(b.Key())
	return nil
}

func get(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	key, err := argKey(ctx, 0)
	if err != nil {
		return err
	}
	b, err := newRPC(ctx).GetBlob(key)
	if err != nil {
		return err
	}
	if b.V == nil {
		return errors.Errorf("blob %s not found", key)
	}
	if out := ctx.String("out"); out != "" {
		return os.WriteFile(out, b.V.Data(), 0o644)
	}
	_, err = os.Stdout.Write(b.V.Data())
	return err
}

func rm(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	key, err := argKey(ctx, 0)
	if err != nil {
		return err
	}
	return newRPC(ctx).DeleteBlob(key)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func status(ctx *cli.Context) error {
	s, err := newRPC(ctx).GetStatus()
	if err != nil {
		return err
	}
	return printJSON(s)
}

func setRef(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	key, err := argKey(ctx, 1)
	if err != nil {
		return err
	}
	return newRPC(ctx).SetRef(ctx.Args().First(), key)
}

func getRef(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	key, err := newRPC(ctx).GetRef(ctx.Args().First())
	if err != nil {
		return err
	}
	if key.V == nil {
		return errors.Errorf("ref %s not found", ctx.Args().First())
	}
	fmt.Println(key.V)
	return nil
}

func rmRef(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	return newRPC(ctx).DeleteRef(ctx.Args().First())
}

func listRefs(ctx *cli.Context) error {
	entries, err := newRPC(ctx).ListRefs()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\n", e.Key, e.Name)
	}
	return nil
}

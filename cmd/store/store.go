// Package store commands operating on a local, stopped node's store.
package store

import (
	"bufio"
	"context"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vechain/blobstore/blobio"
	ncmd "github.com/vechain/blobstore/cmd/node"
	"github.com/vechain/blobstore/kv"
	"github.com/vechain/blobstore/node"
	"github.com/vechain/blobstore/refs"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	// Commands commands exposed
	Commands = []cli.Command{
		{
			Action: export,
			Name:   "export",
			Usage:  "write blobs into a stream file",
			Flags: []cli.Flag{
				ncmd.ConfigFlag,
				ncmd.DirFlag,
				outFlag,
				prefixFlag,
			},
		},
		{
			Action:    _import,
			Name:      "import",
			ArgsUsage: "file",
			Usage:     "read blobs from a stream file",
			Flags: []cli.Flag{
				ncmd.ConfigFlag,
				ncmd.DirFlag,
			},
		},
		{
			Action: scrub,
			Name:   "scrub",
			Usage:  "verify stored blobs and mark corrupt ones",
			Flags: []cli.Flag{
				ncmd.ConfigFlag,
				ncmd.DirFlag,
			},
		},
	}

	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "path of stream file",
	}
	prefixFlag = cli.StringFlag{
		Name:  "prefix",
		Usage: "hex prefix of keys to export",
	}
)

var errArgNum = errors.New("incorrect num of args")

func withStore(ctx *cli.Context, f func(store kv.Store, blobs *blobio.Store) error) error {
	cfg, err := ncmd.LoadConfig(ctx)
	if err != nil {
		return err
	}
	store, blobs, err := ncmd.OpenStore(cfg.Dir, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		blobs.Close()
		store.Close()
	}()
	return f(store, blobs)
}

func export(ctx *cli.Context) error {
	out := ctx.String(outFlag.Name)
	if out == "" {
		return errors.New("--out required")
	}
	return withStore(ctx, func(_ kv.Store, blobs *blobio.Store) error {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		n, err := blobs.Export(w, ctx.String(prefixFlag.Name))
		if err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		log.Infof("exported %d blobs", n)
		return f.Sync()
	})
}

func _import(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	return withStore(ctx, func(_ kv.Store, blobs *blobio.Store) error {
		f, err := os.Open(ctx.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := blobs.Import(bufio.NewReader(f))
		if err != nil {
			return err
		}
		log.Infof("imported %d blobs", n)
		return nil
	})
}

func scrub(ctx *cli.Context) error {
	return withStore(ctx, func(store kv.Store, blobs *blobio.Store) error {
		n := node.New(blobs, refs.New(store), node.Options{ScrubInterval: -1})
		corrupt, err := n.Scrub(context.Background())
		if err != nil {
			return err
		}
		if corrupt > 0 {
			return errors.Errorf("%d corrupt blobs", corrupt)
		}
		return nil
	})
}

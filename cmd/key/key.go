// Package key commands to compute, encode and decode blob keys.
package key

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/vechain/blobstore/blob"
	cli "gopkg.in/urfave/cli.v1"
	"golang.org/x/sync/errgroup"
)

var (
	// Commands commands exposed
	Commands = []cli.Command{
		{
			Name:  "key",
			Usage: "compute and convert blob keys",
			Subcommands: []cli.Command{
				{
					Action:    encode,
					Name:      "encode",
					ArgsUsage: "hex",
					Usage:     "encode a hex digest into canonical form",
				},
				{
					Action:    decode,
					Name:      "decode",
					ArgsUsage: "key",
					Usage:     "decode canonical form into hex digest",
				},
				{
					Action:    sum,
					Name:      "sum",
					ArgsUsage: "file...",
					Usage:     "compute keys of files",
					Flags: []cli.Flag{
						jobsFlag,
					},
				},
			},
		},
	}

	jobsFlag = cli.IntFlag{
		Name:  "jobs",
		Usage: "files hashed concurrently",
		Value: 4,
	}
)

var errArgNum = errors.New("incorrect num of args")

func encode(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	key, err := blob.ParseHexKey(ctx.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}

func decode(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	key, err := blob.ParseKey(ctx.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(key.ToHex())
	return nil
}

// SumFile computes key of file content.
func SumFile(path string) (blob.Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return blob.Key{}, err
	}
	defer f.Close()
	key, _, err := blob.KeyOfReader(f)
	if err != nil {
		return blob.Key{}, errors.Wrap(err, path)
	}
	return key, nil
}

// SumFiles computes keys of files with at most jobs files open at once.
// Keys are in the order of paths.
func SumFiles(ctx context.Context, paths []string, jobs int) ([]blob.Key, error) {
	keys := make([]blob.Key, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key, err := SumFile(path)
			if err != nil {
				return err
			}
			keys[i] = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

func printSums(w io.Writer, paths []string, keys []blob.Key) {
	for i, key := range keys {
		fmt.Fprintf(w, "%s  %s\n", key, paths[i])
	}
}

func sum(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		cli.ShowSubcommandHelp(ctx)
		return errArgNum
	}
	paths := []string(ctx.Args())
	keys, err := SumFiles(context.Background(), paths, ctx.Int(jobsFlag.Name))
	if err != nil {
		return err
	}
	printSums(os.Stdout, paths, keys)
	return nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ruteri/verichain/api/evidencehandler"
	"github.com/ruteri/verichain/cmd/flags"
	"github.com/ruteri/verichain/interfaces"
	"github.com/urfave/cli/v2"
)

var flagContentType = &cli.StringFlag{
	Name:  "content-type",
	Usage: "content type recorded for the upload; sniffed by the server when empty",
}

var flagOutput = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "write fetched evidence to this file instead of stdout",
}

const usage string = `Upload, fetch and inspect evidence held by a verichain server.

   verichain-client upload photo.jpg
   verichain-client fetch -o photo.jpg <content_hash>
   verichain-client record <content_hash>
   verichain-client list
   verichain-client status`

func main() {
	app := &cli.App{
		Name:  "verichain-client",
		Usage: usage,
		Flags: []cli.Flag{
			flags.ServerURLFlag,
		},
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "upload a file as evidence",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{flagContentType},
				Action: func(cCtx *cli.Context) error {
					path := cCtx.Args().First()
					if path == "" {
						return errors.New("missing file argument")
					}
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer f.Close()

					resp, err := newClient(cCtx).Upload(cCtx.Context, filepath.Base(path), cCtx.String(flagContentType.Name), f)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, resp)
				},
			},
			{
				Name:      "fetch",
				Usage:     "download and decrypt evidence",
				ArgsUsage: "<content_hash>",
				Flags:     []cli.Flag{flagOutput},
				Action: func(cCtx *cli.Context) error {
					hash, err := hashArg(cCtx)
					if err != nil {
						return err
					}

					data, _, err := newClient(cCtx).Fetch(cCtx.Context, hash)
					if err != nil {
						return err
					}

					if out := cCtx.String(flagOutput.Name); out != "" {
						return os.WriteFile(out, data, 0o644)
					}
					_, err = cCtx.App.Writer.Write(data)
					return err
				},
			},
			{
				Name:      "record",
				Usage:     "show the catalog record of evidence",
				ArgsUsage: "<content_hash>",
				Action: func(cCtx *cli.Context) error {
					hash, err := hashArg(cCtx)
					if err != nil {
						return err
					}
					record, err := newClient(cCtx).Record(cCtx.Context, hash)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, record)
				},
			},
			{
				Name:  "list",
				Usage: "list catalog records, newest first",
				Action: func(cCtx *cli.Context) error {
					list, err := newClient(cCtx).List(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, list)
				},
			},
			{
				Name:  "status",
				Usage: "show server status",
				Action: func(cCtx *cli.Context) error {
					status, err := newClient(cCtx).Status(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(cCtx.App.Writer, status)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) *evidencehandler.Client {
	return evidencehandler.NewClient(cCtx.String(flags.ServerURLFlag.Name))
}

func hashArg(cCtx *cli.Context) (interfaces.ContentHash, error) {
	if cCtx.Args().Len() != 1 {
		return interfaces.ContentHash{}, errors.New("expected exactly one content hash argument")
	}
	hash, err := interfaces.NewContentHashFromHex(cCtx.Args().First())
	if err != nil {
		return interfaces.ContentHash{}, fmt.Errorf("could not parse content hash: %w", err)
	}
	return hash, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

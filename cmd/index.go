package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nagara-network/metaquery/pkg/config"
	"github.com/nagara-network/metaquery/pkg/metadata"
	"github.com/nagara-network/metaquery/pkg/search"
	"github.com/urfave/cli/v3"
)

// IndexCommand creates the index command
func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Load off-chain file records into the local SQLite index",
		ArgsUsage: "<file.json|file.ndjson|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "mainnet",
				Usage: "Load into the mainnet index",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Index name (overrides the network default)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected one input file, got %d", c.Args().Len())
			}
			return indexFiles(ctx, c.String("config"), c.Args().First(), c.String("index"), c.Bool("mainnet"))
		},
	}
}

func indexFiles(ctx context.Context, configPath, input, index string, mainnet bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if index == "" {
		index = cfg.Store.Index(mainnet)
	}

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", input, err)
		}
		defer f.Close()
		r = f
	}

	records, err := readRecords(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	idx, err := search.OpenSQLiteIndex(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening local index: %w", err)
	}
	defer idx.Close()

	if err := idx.Add(ctx, index, records...); err != nil {
		return fmt.Errorf("indexing records: %w", err)
	}

	total, err := idx.Count(ctx, index)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d records into %s (%d total) at %s\n", len(records), index, total, cfg.Store.SQLitePath)
	return nil
}

// readRecords accepts either a JSON array of records or one JSON object per
// line.
func readRecords(r io.Reader) ([]metadata.OffchainRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []metadata.OffchainRecord
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []metadata.OffchainRecord
	for line := 1; ; line++ {
		var rec metadata.OffchainRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

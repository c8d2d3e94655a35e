package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nagara-network/metaquery/pkg/metadata"
	"github.com/urfave/cli/v3"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	recordStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(13)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Query file metadata from the terminal",
		ArgsUsage: "<terms>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "mainnet",
				Usage: "Search the mainnet index and chain",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			term := strings.Join(c.Args().Slice(), " ")
			return searchFiles(ctx, c.String("config"), term, c.Bool("mainnet"))
		},
	}
}

// searchFiles runs the same query the HTTP endpoint answers and prints the
// records.
func searchFiles(ctx context.Context, configPath, term string, mainnet bool) error {
	cfg, err := loadValidConfig(configPath)
	if err != nil {
		return err
	}

	service, closeService, err := buildService(cfg)
	if err != nil {
		return fmt.Errorf("creating query service: %w", err)
	}
	defer closeService()

	records, err := service.Files(ctx, term, mainnet)
	if err != nil {
		return fmt.Errorf("searching %q: %w", term, err)
	}

	network := "testnet"
	if mainnet {
		network = "mainnet"
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%d files on %s matching %q", len(records), network, term)))

	if len(records) == 0 {
		fmt.Println(noDataStyle.Render("No results found"))
		return nil
	}
	for _, rec := range records {
		fmt.Println(renderRecord(rec))
	}
	return nil
}

func renderRecord(rec metadata.NormalizedRecord) string {
	attester := "-"
	if rec.Attester != nil {
		attester = rec.Attester.String()
	}

	rows := [][2]string{
		{"id", rec.ID.String()},
		{"type", rec.ContentType},
		{"size", fmt.Sprintf("%d bytes", rec.Size)},
		{"uploaded", rec.UploadedAt.Format("2006-01-02 15:04:05")},
		{"downloads", fmt.Sprintf("%d", rec.DownloadCounter)},
		{"owner", rec.Owner.String()},
		{"uploader", rec.Uploader.String()},
		{"servicer", rec.Servicer.String()},
		{"big brother", rec.BigBrother.String()},
		{"attester", attester},
		{"transfer fee", rec.TransferFee.String()},
		{"download fee", rec.DownloadFee.String()},
		{"hash", rec.Hash.String()},
	}

	var b strings.Builder
	b.WriteString(nameStyle.Render(rec.Filename))
	b.WriteString("\n")
	if rec.Descriptions != "" {
		b.WriteString(rec.Descriptions)
		b.WriteString("\n")
	}
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(row[1])
	}
	return recordStyle.Render(b.String())
}

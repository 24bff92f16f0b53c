package importcmd

import (
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/service"
)

type CommandDeps struct {
	fx.In

	ImportService *service.Import
}

// electionFlags describe the election of a local import, which is never
// stored.
func electionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "principal",
			Usage:   "principal definition `FILE`",
			Value:   "principal.yml",
			EnvVars: []string{"ELECTIONDAY_PRINCIPAL_FILE"},
		},
		&cli.StringFlag{
			Name:  "election-id",
			Usage: "store the results for this election instead of printing them",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "title of the election",
			Value: "Proporzwahl",
		},
		&cli.TimestampFlag{
			Name:   "date",
			Usage:  "date of the election",
			Layout: "2006-01-02",
		},
		&cli.StringFlag{
			Name:  "domain",
			Usage: "domain of influence: federation, canton, region, district, municipality or none",
			Value: model.DomainCanton,
		},
		&cli.StringFlag{
			Name:  "domain-segment",
			Usage: "region, district or municipality of the domain",
		},
		&cli.IntFlag{
			Name:  "mandates",
			Usage: "number of mandates",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "expats",
			Usage: "the election has expat votes",
		},
	}
}

// fileFlags takes the file of each field from a flag of the same name,
// dashed.
func fileFlags(fields []string) []cli.Flag {
	flags := make([]cli.Flag, len(fields))
	for i, field := range fields {
		flags[i] = &cli.PathFlag{
			Name:  flagName(field),
			Usage: "csv or xlsx `FILE` of " + field,
		}
	}
	return flags
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func Command() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "import election results from local files",
		Subcommands: []*cli.Command{
			{
				Name:  "wabsti-proporz",
				Usage: "import a wabsti proporz export",
				Flags: append(append(electionFlags(), fileFlags(service.WabstiFields)...),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "store implausible results",
					},
				),
				Action: wabstiProporz,
			},
			{
				Name:  "wabstic-proporz",
				Usage: "import a WabstiC proporz export",
				Flags: append(append(electionFlags(), fileFlags(service.WabstiCFields)...),
					&cli.StringFlag{
						Name:     "number",
						Usage:    "number of the election in the export (SortWahl)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "district",
						Usage:    "district of the election in the export (SortWahlkreis)",
						Required: true,
					},
				),
				Action: wabstiCProporz,
			},
		},
	}
}

func electionID(c *cli.Context) (uuid.UUID, bool, error) {
	raw := c.String("election-id")
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, cli.Exit("--election-id must be a valid uuid", 1)
	}
	return id, true, nil
}

func localElection(c *cli.Context) *model.Election {
	election := &model.Election{
		ID:               uuid.New(),
		Title:            c.String("title"),
		Domain:           c.String("domain"),
		DomainSegment:    c.String("domain-segment"),
		HasExpats:        c.Bool("expats"),
		NumberOfMandates: c.Int("mandates"),
	}
	if date := c.Timestamp("date"); date != nil {
		election.Date = *date
	}
	return election
}

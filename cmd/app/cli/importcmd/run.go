package importcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	cliapp "onegov.dev/electionday/cmd/app/cli"
	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/principal"
	"onegov.dev/electionday/internal/service"
	"onegov.dev/electionday/internal/tally"
)

const mimetypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func mimetypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return mimetypeXLSX
	}
}

// readFiles loads the files given for fields. Fields without a flag are left
// out, the importer reports them as missing.
func readFiles(c *cli.Context, fields []string) (map[string]*importer.Upload, error) {
	files := make(map[string]*importer.Upload, len(fields))
	for _, field := range fields {
		path := c.Path(flagName(field))
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", field)
		}
		files[field] = &importer.Upload{Data: data, Mimetype: mimetypeOf(path)}
	}
	return files, nil
}

type localResult struct {
	Summary       tally.Summary           `json:"summary"`
	Connections   []tally.ConnectionVotes `json:"connections"`
	Apportionment []listMandates          `json:"apportionment"`
}

type listMandates struct {
	ListID   string `json:"listId"`
	Name     string `json:"name"`
	Votes    int    `json:"votes"`
	Mandates int    `json:"mandates"`
}

func summarize(election *model.Election, imported *importer.ImportedElection) *localResult {
	agg := tally.FromImported(election, imported)
	votes := tally.ListVotes(agg)
	mandates := tally.Apportion(agg, election.NumberOfMandates)

	result := &localResult{
		Summary:       tally.Summarize(agg),
		Connections:   tally.ListConnectionVotes(agg),
		Apportionment: make([]listMandates, 0, len(agg.Lists)),
	}
	for _, l := range agg.Lists {
		result.Apportionment = append(result.Apportionment, listMandates{
			ListID:   l.ListID,
			Name:     l.Name,
			Votes:    votes[l.ID],
			Mandates: mandates[l.ID],
		})
	}
	return result
}

func printJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}

func printErrors(c *cli.Context, errs []importer.FileImportError) error {
	for _, e := range errs {
		fmt.Fprintln(c.App.ErrWriter, e.String())
	}
	return cli.Exit(fmt.Sprintf("import rejected with %d error(s)", len(errs)), 1)
}

// rejected prints the errors of a rejected import. Other errors are returned
// as they are.
func rejected(c *cli.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.ErrorCode != apperr.CodeImportRejected {
		return err
	}
	errs, _ := ae.Extras["errors"].([]importer.FileImportError)
	return printErrors(c, errs)
}

// persist imports through the service, which stores the results.
func persist(c *cli.Context, fn func(ctx context.Context, s *service.Import) (*service.ImportResult, error)) error {
	return cliapp.Run(c.Context, func(ctx context.Context, deps CommandDeps) error {
		result, err := fn(ctx, deps.ImportService)
		if err != nil {
			return rejected(c, err)
		}
		return printJSON(c, result)
	})
}

func wabstiProporz(c *cli.Context) error {
	files, err := readFiles(c, service.WabstiFields)
	if err != nil {
		return err
	}

	id, stored, err := electionID(c)
	if err != nil {
		return err
	}
	if stored {
		return persist(c, func(ctx context.Context, s *service.Import) (*service.ImportResult, error) {
			return s.ImportWabsti(ctx, id, files, c.Bool("force"))
		})
	}

	p, err := principal.LoadFile(c.String("principal"))
	if err != nil {
		return err
	}
	election := localElection(c)
	imported, errs := importer.WabstiProporz(election, p, service.WabstiFiles(files))
	if len(errs) > 0 {
		return printErrors(c, errs)
	}
	return printJSON(c, summarize(election, imported))
}

func wabstiCProporz(c *cli.Context) error {
	files, err := readFiles(c, service.WabstiCFields)
	if err != nil {
		return err
	}
	number, district := c.String("number"), c.String("district")

	id, stored, err := electionID(c)
	if err != nil {
		return err
	}
	if stored {
		return persist(c, func(ctx context.Context, s *service.Import) (*service.ImportResult, error) {
			return s.ImportWabstiC(ctx, id, number, district, files)
		})
	}

	p, err := principal.LoadFile(c.String("principal"))
	if err != nil {
		return err
	}
	election := localElection(c)
	imported, errs := importer.WabstiCProporz(election, p, number, district, service.WabstiCFiles(files))
	if len(errs) > 0 {
		return printErrors(c, errs)
	}
	return printJSON(c, summarize(election, imported))
}

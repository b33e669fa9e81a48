package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/config"
	"github.com/giygas/medications-catalog/session"
	"github.com/giygas/medications-catalog/tabledata"
	"github.com/giygas/medications-catalog/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	priceStyle  = cellStyle.Align(lipgloss.Right)
	footerStyle = lipgloss.NewStyle().Faint(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dce0e5"))
)

const priceColumn = 4

type browseOptions struct {
	baseURL      string
	timeout      time.Duration
	name         string
	description  string
	manufacturer string
	sort         string
	page         int // 1 based
	pageSize     int
}

var browseOpts browseOptions

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Print one page of the catalog",
	Example: `  catalog browse --manufacturer pharma --sort asc
  catalog browse --name aspirin --page-size 3 --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd.Context(), cmd.OutOrStdout(), browseOpts)
	},
}

func init() {
	f := browseCmd.Flags()
	f.StringVar(&browseOpts.baseURL, "base-url", "", "upstream base URL (defaults to API_BASE_URL)")
	f.DurationVar(&browseOpts.timeout, "timeout", 30*time.Second, "upstream request timeout")
	f.StringVar(&browseOpts.name, "name", "", "filter on name")
	f.StringVar(&browseOpts.description, "description", "", "filter on description")
	f.StringVar(&browseOpts.manufacturer, "manufacturer", "", "filter on manufacturer")
	f.StringVar(&browseOpts.sort, "sort", "none", "price order: none, asc or desc")
	f.IntVar(&browseOpts.page, "page", 1, "page number, starting at 1")
	f.IntVar(&browseOpts.pageSize, "page-size", catalog.DefaultPageSize, fmt.Sprintf("records per page %v", catalog.PageSizes))
}

func runBrowse(ctx context.Context, out io.Writer, opts browseOptions) error {
	order, err := catalog.ParseSortOrder(opts.sort)
	if err != nil {
		return err
	}
	if err := catalog.CheckPageSize(opts.pageSize); err != nil {
		return err
	}
	if opts.page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", opts.page)
	}

	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = os.Getenv("API_BASE_URL")
	}
	if err := config.ValidateBaseURL(baseURL); err != nil {
		return err
	}

	client := tabledata.NewClient(baseURL,
		tabledata.WithTimeout(opts.timeout),
		tabledata.WithValidator(validation.NewDataValidator()),
	)

	s := session.New(uuid.NewString(), client, session.WithPageSize(opts.pageSize))
	defer s.Close()

	s.Start(ctx)
	if err := s.Wait(ctx); err != nil {
		return err
	}

	snap := s.Snapshot()
	if snap.Status == session.Failed {
		return errors.New(snap.Error)
	}

	values := map[catalog.Field]string{
		catalog.FieldName:         opts.name,
		catalog.FieldDescription:  opts.description,
		catalog.FieldManufacturer: opts.manufacturer,
	}
	for _, field := range catalog.Fields {
		if values[field] == "" {
			continue
		}
		if snap, err = s.EditConstraint(field, values[field]); err != nil {
			return err
		}
	}
	if snap, err = s.ApplyFilters(); err != nil {
		return err
	}
	for snap.State.Sort != order {
		if snap, err = s.ToggleSort(); err != nil {
			return err
		}
	}
	if snap, err = s.SetPage(opts.page - 1); err != nil {
		return err
	}

	renderPage(out, *snap.State)
	return nil
}

// renderPage writes the visible records as a table followed by the page footer
func renderPage(out io.Writer, st catalog.State) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "NAME", "DESCRIPTION", "MANUFACTURER", "PRICE").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == priceColumn:
				return priceStyle
			}
			return cellStyle
		})

	for _, m := range st.Visible() {
		t.Row(strconv.Itoa(m.ID), m.Name, m.Description, m.Manufacturer, strconv.FormatFloat(m.Price, 'f', 2, 64))
	}

	fmt.Fprintln(out, t.String())
	fmt.Fprintln(out, footerStyle.Render(footer(st.Window())))
}

func footer(w catalog.Window) string {
	current := w.Index + 1
	if w.PageCount == 0 {
		current = 0
	}
	return fmt.Sprintf("page %d/%d (%d records)", current, w.PageCount, w.Total)
}

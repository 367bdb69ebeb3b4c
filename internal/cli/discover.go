package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aird-ai/aird/internal/discovery"
	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/platform"
)

// DiscoverFlags holds the flags for the discover command
type DiscoverFlags struct {
	Connection string
	Schemas    []string
	Tables     []string
	Context    string
	Output     string
}

// NewDiscoverCmd creates a new discover command
func NewDiscoverCmd() *cobra.Command {
	flags := &DiscoverFlags{
		Output: formatStdout,
	}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Connect and output the catalog inventory",
		Long: `Discover introspects the catalog behind a connection and emits the
inventory as JSON: schemas, tables and columns with their data types. Pipe
it into ` + "`aird run --inventory -`" + ` to execute probes against a frozen
inventory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Connection, "connection", "c", "", "Connection string (defaults to AIRD_CONNECTION_STRING)")
	cmd.Flags().StringArrayVarP(&flags.Schemas, "schema", "s", nil, "Limit discovery to a schema (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.Tables, "tables", "t", nil, "Limit discovery to a table (repeatable)")
	cmd.Flags().StringVar(&flags.Context, "context", "", "Path to a context file with scope defaults")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output: stdout, json:<path>, or a file path")

	return cmd
}

func runDiscover(cmd *cobra.Command, flags *DiscoverFlags) error {
	connection := connectionFromEnv(flags.Connection)
	if connection == "" {
		return pipeline.Usagef("--connection or AIRD_CONNECTION_STRING required")
	}

	schemas, tables := flags.Schemas, flags.Tables
	if contextPath := orEnv(flags.Context, "AIRD_CONTEXT"); contextPath != "" {
		uc, err := pipeline.LoadContext(contextPath)
		if err != nil {
			return err
		}
		if len(schemas) == 0 {
			schemas = uc.Schemas
		}
		if len(tables) == 0 {
			tables = uc.Tables
		}
	}

	conn, err := platform.DefaultRegistry().Open(cmd.Context(), connection)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	inv, err := discovery.Discover(cmd.Context(), conn, discovery.Options{Schemas: schemas, Tables: tables})
	if err != nil {
		return err
	}

	switch output := flags.Output; {
	case output == formatStdout || output == "-" || output == "":
		return writeJSONTo(os.Stdout, inv, true)
	case isJSONPath(output):
		return writeJSONFile(inv, jsonPath(output))
	default:
		return writeJSONFile(inv, output)
	}
}

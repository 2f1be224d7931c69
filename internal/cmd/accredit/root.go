// Package accredit provides the CLI commands for the accredit tool.
package accredit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	platformcmd "github.com/louisbranch/accredit/internal/platform/cmd"
	"github.com/louisbranch/accredit/internal/services/review/app"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/storage/sqlite"
)

const deadlineLayout = "2006-01-02"

var rootCmd = &cobra.Command{
	Use:   "accredit",
	Short: "Accredit - accreditation review coordination",
	Long: `Accredit coordinates multi-reviewer accreditation reviews.

Readers record per-item compliance votes against a specification catalog,
the lead reader compiles submitted assessments into one recommendation,
and out-of-band changes such as deadline moves pass dual approval.`,
	SilenceUsage: true,
}

var (
	flagDBPath      string
	flagCatalogPath string
	flagActor       string
	flagRole        string
	flagAssigned    []string
)

type cliEnv struct {
	DBPath      string `env:"ACCREDIT_DB_PATH"`
	CatalogPath string `env:"ACCREDIT_CATALOG_PATH"`
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (default $ACCREDIT_DB_PATH or data/accredit.db)")
	rootCmd.PersistentFlags().StringVar(&flagCatalogPath, "catalog", "", "Specification catalog YAML path (default $ACCREDIT_CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "Acting user id")
	rootCmd.PersistentFlags().StringVar(&flagRole, "role", "", "Acting role: author, reader, lead_reader, admin")
	rootCmd.PersistentFlags().StringSliceVar(&flagAssigned, "assigned", nil, "Submission ids the actor is assigned to (defaults to the target submission)")
}

// Execute runs the CLI with telemetry wiring.
func Execute(ctx context.Context) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceReview, func(ctx context.Context) error {
		return rootCmd.ExecuteContext(ctx)
	})
}

// runtime bundles the opened store, catalog, and services for one command.
type runtime struct {
	store *sqlite.Store

	submissions    *app.SubmissionService
	assessments    *app.AssessmentService
	locks          *app.LockService
	compilations   *app.CompilationService
	changeRequests *app.ChangeRequestService
}

// openRuntime resolves config, opens storage, and wires the app services.
// needsCatalog guards commands that can run without a catalog file.
func openRuntime(needsCatalog bool) (*runtime, error) {
	var env cliEnv
	if err := platformcmd.ParseConfig(&env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	dbPath := strings.TrimSpace(flagDBPath)
	if dbPath == "" {
		dbPath = strings.TrimSpace(env.DBPath)
	}
	if dbPath == "" {
		dbPath = filepath.Join("data", "accredit.db")
	}

	var specCatalog catalog.Catalog
	if needsCatalog {
		catalogPath := strings.TrimSpace(flagCatalogPath)
		if catalogPath == "" {
			catalogPath = strings.TrimSpace(env.CatalogPath)
		}
		if catalogPath == "" {
			return nil, fmt.Errorf("catalog path is required: set --catalog or ACCREDIT_CATALOG_PATH")
		}
		file, err := os.Open(catalogPath)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer file.Close()
		specCatalog, err = catalog.LoadYAML(file)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	notifier := app.LogNotifier{}
	return &runtime{
		store:          store,
		submissions:    app.NewSubmissionService(store),
		assessments:    app.NewAssessmentService(store, store, specCatalog, notifier),
		locks:          app.NewLockService(store),
		compilations:   app.NewCompilationService(store, store, specCatalog, notifier),
		changeRequests: app.NewChangeRequestService(store, store, notifier),
	}, nil
}

func (r *runtime) Close() {
	if r == nil || r.store == nil {
		return
	}
	_ = r.store.Close()
}

// actorIdentity builds the acting identity from the persistent flags. When no
// explicit assignment list is given the actor is treated as assigned to the
// target submission; server deployments resolve assignments from their own
// roster instead.
func actorIdentity(targetSubmissionID string) (identity.Identity, error) {
	actorID := strings.TrimSpace(flagActor)
	if actorID == "" {
		return identity.Identity{}, fmt.Errorf("--actor is required")
	}
	role := identity.RoleFromLabel(flagRole)
	if role == identity.RoleUnspecified {
		return identity.Identity{}, fmt.Errorf("--role must be one of author, reader, lead_reader, admin")
	}
	assigned := flagAssigned
	if len(assigned) == 0 && strings.TrimSpace(targetSubmissionID) != "" {
		assigned = []string{targetSubmissionID}
	}
	return identity.Identity{
		ActorID:               actorID,
		Role:                  role,
		AssignedSubmissionIDs: assigned,
	}, nil
}

// parseItemKey parses STANDARD/SPEC item references like STD1/a.
func parseItemKey(value string) (catalog.ItemKey, error) {
	parts := strings.SplitN(strings.TrimSpace(value), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return catalog.ItemKey{}, fmt.Errorf("item must be STANDARD/SPEC, got %q", value)
	}
	return catalog.ItemKey{StandardCode: parts[0], SpecCode: parts[1]}, nil
}

func parseDeadline(value string) (time.Time, error) {
	deadline, err := time.Parse(deadlineLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline must be YYYY-MM-DD, got %q", value)
	}
	return deadline, nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"firestore-explorer/internal/explorer"
	"firestore-explorer/internal/explorer/adapter/confirm"
	"firestore-explorer/internal/explorer/adapter/security"
	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/explorer/usecase"
	"firestore-explorer/internal/shared/firestore"
	"firestore-explorer/internal/shared/utils"

	"github.com/spf13/cobra"
)

func (a *app) newListCommand() *cobra.Command {
	var q usecase.ViewQuery
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List collections, or the documents of a collection",
		Long: `Without arguments ls lists the root collections. Given a document path it
lists that document's subcollections. Given a collection path it prints the
collection with the view described by the filter flags applied.`,
		Example: `  explorerctl ls
  explorerctl ls users --field age --op ">=" --value 21 --limit 10
  explorerctl ls users --field name --op sort --direction desc
  explorerctl ls users/alice`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModule(cmd, func(ctx context.Context, m *explorer.ExplorerModule) error {
				out := cmd.OutOrStdout()
				parent := ""
				if len(args) == 1 {
					info, err := firestore.ParsePath(args[0])
					if err != nil {
						return err
					}
					parent = info.Path
					if info.IsCollection {
						return listCollection(ctx, cmd, m, info.Path, q, asJSON)
					}
				}

				ids, err := m.Collections.ListCollections(ctx, parent)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&q.Field, "field", "", "Field path to filter or sort on")
	flags.StringVar(&q.Op, "op", "", "Operator: == != < <= > >= in not-in array-contains array-contains-any sort")
	flags.StringVar(&q.Value, "value", "", "Filter value, parsed as JSON when possible")
	flags.StringVar(&q.Values, "values", "", "Comma separated or JSON array values for in, not-in and array-contains-any")
	flags.StringVar(&q.Direction, "direction", "", "Sort direction: asc or desc")
	flags.IntVar(&q.Limit, "limit", 0, "Show at most this many documents")
	flags.StringVar(&q.Expr, "expr", "", "CEL expression over doc and id, e.g. 'doc.age > 21'")
	flags.BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func listCollection(ctx context.Context, cmd *cobra.Command, m *explorer.ExplorerModule, path string, q usecase.ViewQuery, asJSON bool) error {
	snapshot, err := m.Collections.LoadCollection(ctx, usecase.LoadCollectionRequest{
		CollectionPath: path,
		View:           q.ViewOptions(),
	})
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), snapshot)
	}
	return printSnapshot(cmd, snapshot)
}

func printSnapshot(cmd *cobra.Command, snapshot *model.CollectionSnapshot) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATA")
	for _, doc := range snapshot.Documents {
		data, err := json.Marshal(doc.Data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", doc.ID, data)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d documents\n", len(snapshot.Documents), snapshot.TotalCount)
	return nil
}

func (a *app) newAddCommand() *cobra.Command {
	var id, data string

	cmd := &cobra.Command{
		Use:     "add <collection>",
		Short:   "Add a document to a collection",
		Example: `  explorerctl add users --id alice --data '{"name": "Alice", "age": 30}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := utils.DecodeJSONObject([]byte(data))
			if err != nil {
				return fmt.Errorf("--data must be a JSON object: %w", err)
			}
			return a.withModule(cmd, func(ctx context.Context, m *explorer.ExplorerModule) error {
				resp, err := m.Collections.CreateDocument(ctx, usecase.CreateDocumentRequest{
					CollectionPath: args[0],
					DocumentID:     id,
					Data:           fields,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n%s\n", resp.Document.Path, resp.Redirect)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Document ID (generated when empty)")
	cmd.Flags().StringVar(&data, "data", "{}", "Document fields as a JSON object")
	return cmd
}

func (a *app) newRemoveCommand() *cobra.Command {
	var yes, recursive bool

	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a collection or a document",
		Long: `rm deletes a collection with all nested subcollections, or a single
document. It asks for confirmation unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirmer repository.Confirmer = confirm.NewPrompt(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirmer = confirm.Always
			}
			info, err := firestore.ParsePath(args[0])
			if err != nil {
				return err
			}

			return a.withModule(cmd, func(ctx context.Context, m *explorer.ExplorerModule) error {
				var result *usecase.DeleteResult
				if info.IsCollection {
					result, err = m.Collections.DeleteCollection(ctx, info.Path, confirmer)
				} else {
					result, err = m.Collections.DeleteDocument(ctx, usecase.DeleteDocumentRequest{
						DocumentPath: info.Path,
						Recursive:    recursive,
					}, confirmer)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d document(s) under %s\n", result.Deleted, result.Path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also delete a document's subcollections")
	return cmd
}

func (a *app) newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Write the documents of a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModule(cmd, func(ctx context.Context, m *explorer.ExplorerModule) error {
				result, err := m.SeedFromFile(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d documents\n", result.Written)
				return nil
			})
		},
	}
}

func (a *app) newChangesCommand() *cobra.Command {
	var since string
	var count int64

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Print recorded change events (requires REDIS_ENABLED)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModule(cmd, func(ctx context.Context, m *explorer.ExplorerModule) error {
				events, err := m.Collections.ListChanges(ctx, model.ResumeToken(since), count)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), events)
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Resume token to read after")
	cmd.Flags().Int64Var(&count, "count", 100, "Maximum number of events")
	return cmd
}

func (a *app) newTokenCommand() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the mutating API routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModule(cmd, func(ctx context.Context, m *explorer.ExplorerModule) error {
				if m.Tokens == nil {
					return fmt.Errorf("AUTH_JWT_SECRET is not set")
				}
				token, err := m.Tokens.GenerateToken(ctx, subject)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", security.AdminSubject, "Token subject")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for AUTH_ADMIN_PASSWORD_HASH",
		Long:  "hash-password hashes its argument, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				var line string
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = line
			}
			hash, err := security.HashPassword(strings.TrimSpace(password))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

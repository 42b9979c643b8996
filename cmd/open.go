package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

var openSelect bool

var openCmd = &cobra.Command{
	Use:     "open [note-path]",
	Aliases: []string{"o"},
	Short:   "Open a document in the OS's default handler for its file type",
	Long: `open resolves a note name or path against the vault index and hands the
absolute file path to the operating system's default application, the way a
double-click in a file manager would. Pass --select to pick from the index
with a fuzzy finder instead of naming a path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		idx, _, _, err := buildCore(root)
		if err != nil {
			return err
		}

		var relPath string
		if len(args) == 1 && !openSelect {
			relPath = args[0]
		} else {
			relPath, err = pickLocalDocument(idx)
			if err != nil {
				return err
			}
		}
		if relPath == "" {
			return errors.New("no document selected")
		}

		if _, ok := idx.Get(relPath); !ok {
			return fmt.Errorf("no document at %q", relPath)
		}
		return open.Run(filepath.Join(root, relPath))
	},
}

func init() {
	openCmd.Flags().BoolVar(&openSelect, "select", false, "pick a document interactively")
	rootCmd.AddCommand(openCmd)
}

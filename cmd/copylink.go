package cmd

import (
	"fmt"

	"github.com/atomicobject/org-viewer/internal/vault"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var copyLinkSelect bool

var copyLinkCmd = &cobra.Command{
	Use:   "copylink [note-path]",
	Short: "Copy a wikilink to a document onto the system clipboard",
	Long: `copylink writes a [[Stem]]-style wikilink for the named document to the
clipboard, so it can be pasted into another note. Pass --select to pick the
document with a fuzzy finder instead of naming a path.`,
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

		relPath := ""
		if len(args) == 1 && !copyLinkSelect {
			relPath = args[0]
		} else {
			relPath, err = pickLocalDocument(idx)
			if err != nil {
				return err
			}
		}

		doc, ok := idx.Get(relPath)
		if !ok {
			return fmt.Errorf("no document at %q", relPath)
		}

		link := "[[" + vault.Stem(doc.Path) + "]]"
		if err := clipboard.WriteAll(link); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Printf("copied %s to clipboard\n", link)
		return nil
	},
}

func init() {
	copyLinkCmd.Flags().BoolVar(&copyLinkSelect, "select", false, "pick a document interactively")
	rootCmd.AddCommand(copyLinkCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

type shellKind string

const (
	shellBash       shellKind = "bash"
	shellZsh        shellKind = "zsh"
	shellFish       shellKind = "fish"
	shellPowerShell shellKind = "powershell"
	shellCmd        shellKind = "cmd"
)

var (
	aliasName       string
	aliasShellFlag  string
	aliasSymlink    bool
	aliasSymlinkDir string
	aliasForce      bool
)

var aliasCmd = &cobra.Command{
	Use:   "alias [name]",
	Short: "Print a shell alias snippet, or install a symlink shortcut",
	Long: `alias generates a shell alias snippet for this binary, or installs a
symlink shortcut (e.g. ~/.local/bin/ov -> org-viewer) so it can be invoked
under a shorter name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && aliasName == "" {
			aliasName = args[0]
		}
		if aliasName == "" {
			return errors.New("alias name is required")
		}

		shell := detectShell(aliasShellFlag)
		if aliasSymlink {
			if aliasSymlinkDir == "" {
				return errors.New("--dir is required with --symlink")
			}
			if err := installSymlink(aliasName, aliasSymlinkDir, aliasForce); err != nil {
				return err
			}
		}
		fmt.Print(renderAlias(aliasName, shell))
		return nil
	},
}

func init() {
	aliasCmd.Flags().StringVar(&aliasName, "name", "", "alias name (e.g. ov)")
	aliasCmd.Flags().StringVar(&aliasShellFlag, "shell", "", "bash, zsh, fish, powershell, cmd (default: detect from $SHELL)")
	aliasCmd.Flags().BoolVar(&aliasSymlink, "symlink", false, "install a symlink in --dir pointing at this executable")
	aliasCmd.Flags().StringVar(&aliasSymlinkDir, "dir", filepath.Join(os.Getenv("HOME"), ".local", "bin"), "symlink directory")
	aliasCmd.Flags().BoolVar(&aliasForce, "force", false, "overwrite an existing file at the symlink path")
	rootCmd.AddCommand(aliasCmd)
}

func detectShell(flag string) shellKind {
	if flag != "" {
		return shellKind(strings.ToLower(strings.TrimSpace(flag)))
	}
	switch strings.ToLower(filepath.Base(os.Getenv("SHELL"))) {
	case "bash":
		return shellBash
	case "fish":
		return shellFish
	case "pwsh", "powershell":
		return shellPowerShell
	case "cmd", "cmd.exe":
		return shellCmd
	default:
		return shellZsh
	}
}

func renderAlias(name string, shell shellKind) string {
	switch shell {
	case shellFish:
		return fmt.Sprintf("alias %s 'org-viewer'\n", name)
	case shellPowerShell:
		return fmt.Sprintf("Set-Alias -Name %s -Value org-viewer\n", name)
	case shellCmd:
		return fmt.Sprintf("doskey %s=org-viewer $*\n", name)
	default:
		return fmt.Sprintf("alias %s=\"org-viewer\"\n", name)
	}
}

func installSymlink(name, dir string, force bool) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	linkName := name
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(linkName), ".exe") {
		linkName += ".exe"
	}
	dst := filepath.Join(dir, linkName)

	if _, err := os.Lstat(dst); err == nil {
		if !force {
			return fmt.Errorf("refusing to overwrite existing path: %s (use --force)", dst)
		}
		if err := os.Remove(dst); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return os.Symlink(exe, dst)
}

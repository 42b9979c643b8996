package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atomicobject/org-viewer/internal/httpapi"
	"github.com/atomicobject/org-viewer/internal/searchlog"
	"github.com/atomicobject/org-viewer/internal/watcher"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP surface, peer polling, sync polling, and file watcher",
	Long: `serve brings up the full federation core for one vault, in a fixed
order: the index loads and reconciles against disk first, then
peer hello-polling starts, then sync drift-polling starts, and only then is
the file watcher installed. Installing the watcher last avoids a burst of
startup events deadlocking the initial enumeration of shared documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}

		idx, peers, sync, err := buildCore(root)
		if err != nil {
			return err
		}
		log.Printf("serve: index ready for %s", root)
		sync.SetLocalHost("localhost", servePort)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go peers.Run(ctx)
		go sync.RunDriftPolling(ctx)

		w, err := watcher.New(root, idx)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		w.Subscribe(watcherToSync{sync})
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Close()

		var slog *searchlog.Log
		if l, err := searchlog.Open(root + "/" + searchlog.FileName); err == nil {
			slog = l
			defer slog.Close()
		} else {
			log.Printf("serve: search log unavailable: %v", err)
		}

		onSearch := func(query string, hits int) {
			if slog == nil {
				return
			}
			_ = slog.Record(ctx, query, hits, time.Now().Unix())
		}

		srv := httpapi.New(idx, peers, sync, onSearch)
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", servePort),
			Handler: srv,
		}

		ln, err := net.Listen("tcp", httpServer.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
		}

		go func() {
			log.Printf("serve: listening on %s", httpServer.Addr)
			if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Printf("serve: http server error: %v", err)
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Println("serve: shutting down")
		return httpServer.Close()
	},
}

// watcherToSync implements watcher.Subscriber, bridging filesystem change
// notifications into the sync service's local-change drift check. Its
// OnVaultChange is invoked only after the watcher has already released the
// index's write lock, so drift checks never run under it.
type watcherToSync struct {
	sync interface{ HandleLocalChange(string) }
}

func (w watcherToSync) OnVaultChange(c watcher.Change) {
	if c.Kind == watcher.ChangeUpdate {
		w.sync.HandleLocalChange(c.Path)
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 3847, "HTTP listen port")
	rootCmd.AddCommand(serveCmd)
}
